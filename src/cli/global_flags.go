package cli

import (
	"github.com/spf13/cobra"

	"backup-console/src/safety"
)

// configFlags are persistent flags that override config keys of the same name.
var configFlags = []string{"remote", "log-level"}

// addGlobalFlags adds persistent connection, logging and safety flags to the root command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (JSON or YAML); defaults to ./backup-console.json when present")
	cmd.PersistentFlags().String("remote", "", "Server to talk to: api:<url> or incus:<project>")
	cmd.PersistentFlags().String("log-level", "", "Log level (DEBUG, INFO, NOTICE, WARNING, ERROR, CRITICAL)")
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	cmd.PersistentFlags().Bool("force", false, "Force potentially dangerous operations")
}

// getSafetyOptions reads global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	force, _ := cmd.Root().PersistentFlags().GetBool("force")
	return safety.Options{DryRun: dry, Yes: yes, Force: force}
}

// configOverrides returns the config flags the user set explicitly.
func configOverrides(cmd *cobra.Command) map[string]any {
	out := map[string]any{}
	for _, name := range configFlags {
		f := cmd.Root().PersistentFlags().Lookup(name)
		if f != nil && f.Changed {
			out[name] = f.Value.String()
		}
	}
	return out
}
