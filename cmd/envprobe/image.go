package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hollis-dev/envprobe/internal/imagetar"
)

func deltaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delta <image.tar> <inspect.json>",
		Short: "Create a layer delta of an image tarball against a host's docker inspect output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := imagetar.Delta(args[0], args[1], slog.Default())
			return err
		},
	}
}

func patchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <old-image.tar> <image.delta>",
		Short: "Rebuild a full image tarball from a delta and an older tarball",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := imagetar.Patch(args[0], args[1], slog.Default())
			// An unpatchable delta is reported via the log, not the exit code.
			if errors.Is(err, imagetar.ErrLayersUnavailable) {
				fmt.Fprintln(cmd.OutOrStdout(), "patch aborted: the old tarball lacks required layers")
				return nil
			}
			return err
		},
	}
}
