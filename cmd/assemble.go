package cmd

import (
	"fmt"

	"nolangvm/assembler"

	"github.com/spf13/cobra"
)

var assembleOutput string

var assembleCmd = &cobra.Command{
	Use:   "assemble <source.nolang>",
	Short: "Assemble NoLang text into an encoded program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readInput(args[0])
		if err != nil {
			return usageErr(fmt.Errorf("read %s: %w", args[0], err))
		}

		program, err := assembler.Assemble(string(src))
		if err != nil {
			return usageErr(err)
		}

		if err := writeOutput(assembleOutput, program.Encode()); err != nil {
			return usageErr(fmt.Errorf("write output: %w", err))
		}
		return nil
	},
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleOutput, "output", "o", "", "output file (default stdout)")
}
