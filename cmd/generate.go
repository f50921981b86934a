package cmd

import (
	"fmt"

	"nolangvm/generate"

	"github.com/spf13/cobra"
)

var (
	generateSeed   int64
	generateShape  string
	generateOutput string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Emit a single synthetic program from a seed and shape",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shape := generate.Shape(generateShape)
		valid := false
		for _, s := range generate.AllShapes {
			if s == shape {
				valid = true
				break
			}
		}
		if !valid {
			return usageErr(fmt.Errorf("unknown shape %q (want one of %v)", generateShape, generate.AllShapes))
		}

		gp, err := generate.Generate(generateSeed, shape)
		if err != nil {
			return usageErr(err)
		}

		if err := writeOutput(generateOutput, gp.Program.Encode()); err != nil {
			return usageErr(fmt.Errorf("write output: %w", err))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 1, "deterministic generation seed")
	generateCmd.Flags().StringVar(&generateShape, "shape", string(generate.ShapeArithmetic), "program shape: arithmetic, match, recursive")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output file (default stdout)")
}
