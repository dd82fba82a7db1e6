package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"backup-console/src/fingerprint"
	"backup-console/src/keys"
	"backup-console/src/util/progress"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Encryption keys known to the server",
	}
	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysFingerprintCmd())
	return cmd
}

func newKeysListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List encryption keys (hint and fingerprint)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				c, err := s.catalog(ctx)
				if err != nil {
					return err
				}
				recs := c.List()
				return render(cmd.OutOrStdout(), output, recs, func() ([]string, [][]string) {
					return keyTable(recs)
				})
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func keyTable(recs []keys.KeyRecord) ([]string, [][]string) {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		created := "-"
		if r.Created > 0 {
			created = time.Unix(r.Created, 0).UTC().Format(time.RFC3339)
		}
		kdf := string(r.Kdf)
		if kdf == "" {
			kdf = "-"
		}
		rows = append(rows, []string{r.Hint, fingerprint.Pretty(r.Fingerprint), kdf, created})
	}
	return []string{"hint", "fingerprint", "kdf", "created"}, rows
}

func newKeysFingerprintCmd() *cobra.Command {
	var pretty, showProgress bool
	cmd := &cobra.Command{
		Use:   "fingerprint FILE|-",
		Short: "Compute the fingerprint of a key file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var (
				r     io.Reader
				total int64
			)
			if name == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				defer f.Close()
				if st, err := f.Stat(); err == nil {
					total = st.Size()
				}
				r = f
			}
			if showProgress {
				r = progress.NewReader(r, total, name, cmd.ErrOrStderr())
			}
			fp, err := fingerprint.FromReader(r)
			if err != nil {
				return err
			}
			if pretty {
				fp = fingerprint.Pretty(fp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", fp, name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Print the colon-separated form")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Report hashing progress on stderr")
	return cmd
}
