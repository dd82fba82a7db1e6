package cli

import (
	"context"

	"github.com/spf13/cobra"

	"backup-console/src/jobs"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Backup jobs configured on the server",
	}
	cmd.AddCommand(newJobsListCmd())
	return cmd
}

func newJobsListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backup jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				list, err := s.listJobs(ctx)
				if err != nil {
					return err
				}
				if list == nil {
					list = []jobs.JobRecord{}
				}
				return render(cmd.OutOrStdout(), output, list, func() ([]string, [][]string) {
					return jobTable(list)
				})
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func jobTable(list []jobs.JobRecord) ([]string, [][]string) {
	rows := make([][]string, 0, len(list))
	for _, j := range list {
		rows = append(rows, []string{j.ID, j.TargetID, j.StorageID, dash(j.Type), dash(j.Node), j.Comment})
	}
	return []string{"id", "target", "storage", "type", "node", "comment"}, rows
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
