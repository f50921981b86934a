package cmd

import (
	"fmt"

	"nolangvm/assembler"
	"nolangvm/nolang"

	"github.com/spf13/cobra"
)

var disassembleOutput string

var disassembleCmd = &cobra.Command{
	Use:   "disassemble <program.bin>",
	Short: "Disassemble an encoded program into NoLang text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return usageErr(fmt.Errorf("read %s: %w", args[0], err))
		}

		program, err := nolang.DecodeProgram(data)
		if err != nil {
			return usageErr(err)
		}

		text := assembler.Disassemble(program)
		if err := writeOutput(disassembleOutput, []byte(text)); err != nil {
			return usageErr(fmt.Errorf("write output: %w", err))
		}
		return nil
	},
}

func init() {
	disassembleCmd.Flags().StringVarP(&disassembleOutput, "output", "o", "", "output file (default stdout)")
}
