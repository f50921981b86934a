package cmd

import (
	"fmt"

	"nolangvm/nolang"
	"nolangvm/verifier"
	"nolangvm/vm"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program.bin>",
	Short: "Verify and execute an encoded program",
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

		if _, verr := verifier.Verify(program); verr != nil {
			printf("%s\n", verr)
			return verifyErr(verr)
		}

		machine, err := vm.NewVM(program)
		if err != nil {
			return runtimeErr(err)
		}

		result, err := machine.Run()
		if err != nil {
			printf("trapped: %s\n", err)
			return runtimeErr(err)
		}

		printf("%s\n", result)
		return nil
	},
}
