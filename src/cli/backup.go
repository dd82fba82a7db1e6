package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"backup-console/src/jobs"
	"backup-console/src/keys"
	"backup-console/src/panel"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Run backup jobs",
	}
	cmd.AddCommand(newBackupStartCmd())
	return cmd
}

func newBackupStartCmd() *cobra.Command {
	var jobRef, targetRef, keyRef string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the selected backup job now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobRef != "" && targetRef != "" {
				return errors.New("use either --job or --target, not both")
			}
			ref := jobRef
			if ref == "" {
				ref = targetRef
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if s.remote.Exec == nil {
					return fmt.Errorf("remote %s cannot run backup jobs", s.cfg.Remote)
				}
				opts := []panel.Option{panel.WithNotifier(s.notifier), panel.WithMetrics(s.metrics)}
				if keyRef != "" {
					c, err := s.catalog(ctx)
					if err != nil {
						return err
					}
					sel := keys.NewSelector(c, true)
					if _, err := sel.Resolve(keyRef); err != nil {
						return err
					}
					opts = append(opts, panel.WithKeySelector(sel))
				}
				p := panel.NewBackupPanel(s.remote.Exec, opts...)

				if ref != "" {
					list, err := s.listJobs(ctx)
					if err != nil {
						return err
					}
					job, err := jobs.Find(list, ref)
					if err != nil {
						return err
					}
					p.Selection().SelectionChanged(job)
				}

				if getSafetyOptions(cmd).DryRun {
					sel := p.Selection().Selection()
					if sel.None() {
						return errors.New("no backup target selected")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "[dry-run] would start backup of %s to %s\n", sel.Selected.TargetID, sel.Selected.StorageID)
					return nil
				}

				out := p.Start(ctx)
				if !out.Success() {
					return out.Err()
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jobRef, "job", "", "Job id to start")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target (guest) whose job to start")
	cmd.Flags().StringVar(&keyRef, "key", "", "Encryption key to use, by fingerprint or hint")
	return cmd
}
