package cmd

import (
	"fmt"

	"nolangvm/nolang"
	"nolangvm/verifier"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <program.bin>",
	Short: "Run all verifier passes against an encoded program",
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

		ctx, verr := verifier.Verify(program)
		if verr != nil {
			printf("%s\n", verr)
			return verifyErr(verr)
		}

		printf("ok: %d functions, %d match blocks\n", len(ctx.Functions), len(ctx.Matches))
		return nil
	},
}
