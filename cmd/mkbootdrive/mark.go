package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tpu-emu/bootdrive/bootimg"
)

func parseSectors(args []string) ([]int, error) {
	sectors := make([]int, 0, len(args))
	for _, arg := range args {
		s, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid sector %q: %v", arg, err)
		}
		sectors = append(sectors, s)
	}
	return sectors, nil
}

func newMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <image> <sector>...",
		Short: "Mark free partition sectors in use",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sectors, err := parseSectors(args[1:])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return updateImage(args[0], func(im *bootimg.Image) error {
				if err := im.MarkUsed(sectors...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "In use: %v\n", im.InUse())
				return nil
			})
		},
	}
}

func newAllocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alloc <image> <count>",
		Short: "Allocate a contiguous run of free partition sectors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %v", args[1], err)
			}
			cmd.SilenceUsage = true
			return updateImage(args[0], func(im *bootimg.Image) error {
				first, err := im.Allocate(count)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Allocated sectors %d-%d\n", first, first+count-1)
				return nil
			})
		},
	}
}

// updateImage opens path, calls fn and closes the image on every path.
func updateImage(path string, fn func(im *bootimg.Image) error) error {
	opts, err := imageOptions()
	if err != nil {
		return err
	}
	im, err := bootimg.Open(path, opts)
	if err != nil {
		return err
	}
	if err := fn(im); err != nil {
		im.Close()
		return err
	}
	return im.Close()
}
