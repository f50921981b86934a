package cmd

import (
	"fmt"
	"os"

	"nolangvm/nolang"
	"nolangvm/verifier"

	"github.com/spf13/cobra"
)

var hashOutput string

var hashCmd = &cobra.Command{
	Use:   "hash <program.bin>",
	Short: "Recompute and patch every FUNC block's HASH instruction",
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

		ctx, structuralErrs := verifier.CheckStructural(program.Instructions)
		if ctx.Fatal {
			return verifyErr(fmt.Errorf("program has unrecoverable structural errors: %v", structuralErrs))
		}

		patched := 0
		for _, fn := range ctx.Functions {
			if fn.HashPC == nil {
				continue
			}
			digest := verifier.ComputeFuncHash(program.Instructions, fn, *fn.HashPC)
			program.Instructions[*fn.HashPC] = verifier.PackedHashInstruction(digest)
			patched++
		}

		if err := writeOutput(hashOutput, program.Encode()); err != nil {
			return usageErr(fmt.Errorf("write output: %w", err))
		}

		fmt.Fprintf(os.Stderr, "patched %d function hash(es)\n", patched)
		return nil
	},
}

func init() {
	hashCmd.Flags().StringVarP(&hashOutput, "output", "o", "", "output file (default stdout)")
}
