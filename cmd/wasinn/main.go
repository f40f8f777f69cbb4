// Command wasinn runs wasi-nn guest modules and inspects the ABI they use.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCodeError carries a guest's nonzero exit code out of Execute.
type exitCodeError struct {
	code uint32
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("guest exited with code %d", e.code)
}

func newRootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "wasinn",
		Short:         "Run and inspect wasi-nn WebAssembly guests",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newABICmd(),
		newSchemaCmd(),
		newConvertCmd(),
		newTopCmd(),
	)
	return rootCmd
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		os.Exit(int(exitErr.code))
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
