// Package cmd implements the nolang CLI: assemble/disassemble text and
// binary programs, verify and run them, patch FUNC-block hashes, and
// drive the training-corpus generator and witness harness.
package cmd

import (
	"fmt"
	"io"
	"os"

	"nolangvm/log"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "nolang",
	Short:         "Assembler, verifier, and VM for the NoLang bytecode format",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Init(logLevel)
	},
}

// Execute runs the CLI and returns the error the invoked subcommand
// failed with, if any. Callers should pass the result through ExitCode
// to get the process exit status.
func Execute() error {
	defer log.Sync() //nolint:errcheck
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(assembleCmd, disassembleCmd, verifyCmd, runCmd, hashCmd, trainCmd, witnessCmd, generateCmd)
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
