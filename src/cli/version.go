package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"backup-console/src/version"
)

func newVersionCmd(stdout io.Writer) *cobra.Command {
	var server bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, version.Version)
			if !server {
				return nil
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if s.remote.Server == nil {
					return fmt.Errorf("remote %s does not report a version", s.cfg.Remote)
				}
				v, err := s.remote.Server.ServerVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "server %s: %s\n", s.cfg.Remote, v)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "Also print the version of the remote server")
	return cmd
}
