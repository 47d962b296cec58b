package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
)

// Output formats accepted by the aggregate and runs commands.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// validateOutputFormat rejects anything other than table or json.
func validateOutputFormat(format string) error {
	if !slices.Contains([]string{outputTable, outputJSON}, format) {
		return fmt.Errorf("unsupported output format %q: use %s or %s", format, outputTable, outputJSON)
	}
	return nil
}

// styledOutput reports whether w is a terminal that should receive ANSI styling.
func styledOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
