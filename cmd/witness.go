package cmd

import (
	"fmt"

	"nolangvm/nolang"
	"nolangvm/verifier"
	"nolangvm/witness"

	"github.com/spf13/cobra"
)

var witnessFunc int

var witnessCmd = &cobra.Command{
	Use:   "witness <program.bin> <cases.json>",
	Short: "Run a witness file against a compiled function and report pass/fail",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		progData, err := readInput(args[0])
		if err != nil {
			return usageErr(fmt.Errorf("read %s: %w", args[0], err))
		}
		program, err := nolang.DecodeProgram(progData)
		if err != nil {
			return usageErr(err)
		}

		if _, verr := verifier.Verify(program); verr != nil {
			printf("%s\n", verr)
			return verifyErr(verr)
		}

		paramTypes, err := witness.FunctionParamTypes(program, witnessFunc)
		if err != nil {
			return usageErr(err)
		}

		caseData, err := readInput(args[1])
		if err != nil {
			return usageErr(fmt.Errorf("read %s: %w", args[1], err))
		}
		cases, err := witness.ParseFile(caseData, paramTypes)
		if err != nil {
			return usageErr(err)
		}

		results := witness.Run(program, witnessFunc, cases)

		failed := 0
		for _, r := range results {
			if r.Passed {
				printf("case %d: PASS\n", r.Index)
				continue
			}
			failed++
			if r.Err != nil {
				printf("case %d: FAIL (%s)\n", r.Index, r.Err)
			} else {
				printf("case %d: FAIL (expected %s, got %s)\n", r.Index, r.Expected, r.Actual)
			}
		}

		printf("%d/%d passed\n", len(results)-failed, len(results))
		if failed > 0 {
			return runtimeErr(fmt.Errorf("%d of %d witness case(s) failed", failed, len(results)))
		}
		return nil
	},
}

func init() {
	witnessCmd.Flags().IntVar(&witnessFunc, "func", 0, "index of the function to test")
}
