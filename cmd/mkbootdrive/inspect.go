package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tpu-emu/bootdrive/bootimg"
	"github.com/tpu-emu/bootdrive/driveflag"
	"github.com/tpu-emu/bootdrive/humanize"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image>",
		Short: "Check a drive image and print its allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			l, err := driveflag.Layout()
			if err != nil {
				return err
			}
			rep, err := bootimg.Inspect(args[0], l)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Image:   %s\n", args[0])
			fmt.Fprintf(out, "Layout:  %s\n", l)
			fmt.Fprintf(out, "Size:    %s\n", humanize.Bytes(uint64(rep.Size)))
			if rep.Digest != "" {
				fmt.Fprintf(out, "In use:  %v\n", rep.InUse)
				fmt.Fprintf(out, "Free:    %s\n", humanize.Sectors(rep.Free, l.SectorSize))
				fmt.Fprintf(out, "BLAKE2b: %s\n", rep.Digest)
			}
			for _, p := range rep.Problems {
				fmt.Fprintf(out, "problem: %v\n", p)
			}
			if !rep.OK() {
				return fmt.Errorf("%s: %d problem(s) found", args[0], len(rep.Problems))
			}
			return nil
		},
	}
}
