package logs

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

const format = `%{time:2006-01-02 15:04:05} %{level:.5s} %{module:-9s} %{message}`

// DefaultLevel is used when no level is configured.
const DefaultLevel = "WARNING"

// Init receives the log level as a string, parses it and installs a formatted
// backend writing to out (stderr when nil). An unknown level returns an error
// and leaves the current backend untouched.
func Init(level string, out io.Writer) error {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	if out == nil {
		out = os.Stderr
	}
	base := logging.NewLogBackend(out, "", 0)
	formatted := logging.NewBackendFormatter(base, logging.MustStringFormatter(format))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
	return nil
}
