package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"backup-console/src/panel"
)

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Removable backup media",
	}
	cmd.AddCommand(newMediaDestroyCmd())
	return cmd
}

func newMediaDestroyCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "destroy UUID",
		Short: "Remove a medium from the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if s.remote.Media == nil {
					return fmt.Errorf("remote %s has no removable media", s.cfg.Remote)
				}
				opts := getSafetyOptions(cmd)
				w := panel.NewMediaRemovalWindow(s.remote.Media, opts, cmd.InOrStdin(), cmd.OutOrStdout(), s.notifier, s.metrics)
				out, err := w.Remove(ctx, args[0], label, opts.Force)
				if err != nil {
					return err
				}
				if !out.Success() {
					return out.Err()
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Media label shown in the confirmation")
	return cmd
}
