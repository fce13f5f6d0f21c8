// mkbootdrive creates boot drive images and maintains their sector
// allocation bitmap.
//
// Example:
//
//	mkbootdrive -C ~/drives alpha
//	mkbootdrive inspect ~/drives/alpha.dsk
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tpu-emu/bootdrive/bootimg"
	"github.com/tpu-emu/bootdrive/driveflag"
)

func imageOptions() (*bootimg.Options, error) {
	l, err := driveflag.Layout()
	if err != nil {
		return nil, err
	}
	return &bootimg.Options{
		Layout: l,
		Log:    logrus.StandardLogger(),
	}, nil
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "mkbootdrive <drive-name>",
		Short: "Create a bootable 64 KiB drive image",
		Long: "Create a zero-filled 64 KiB boot drive image with the boot partition\n" +
			"marked in its sector allocation bitmap. The image is written to\n" +
			"<dir>/<drive-name>.dsk.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("invalid usage: %s <drive-name>", cmd.CommandPath())
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			opts, err := imageOptions()
			if err != nil {
				return err
			}
			dir, err := filepath.Abs(driveflag.OutputDir())
			if err != nil {
				return err
			}
			path, err := bootimg.Create(dir, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disk created: %s\n", path)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	driveflag.RegisterPflags(root.PersistentFlags())

	root.AddCommand(newInspectCmd())
	root.AddCommand(newMarkCmd())
	root.AddCommand(newAllocCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
