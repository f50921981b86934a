package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"nolangvm/generate"

	"github.com/spf13/cobra"
)

var (
	trainCount   int
	trainWorkers int
	trainSeed    int64
	trainDir     string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Emit a training corpus of generated valid programs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if trainDir == "" {
			return usageErr(fmt.Errorf("--dir is required"))
		}
		if err := os.MkdirAll(trainDir, 0o755); err != nil {
			return usageErr(fmt.Errorf("create output dir: %w", err))
		}

		programs, err := generate.Train(trainCount, trainWorkers, trainSeed)
		if err != nil {
			return usageErr(err)
		}

		for i, gp := range programs {
			name := fmt.Sprintf("%04d-%s-%d.bin", i, gp.Shape, gp.Seed)
			path := filepath.Join(trainDir, name)
			if err := os.WriteFile(path, gp.Program.Encode(), 0o644); err != nil {
				return usageErr(fmt.Errorf("write %s: %w", path, err))
			}
		}

		printf("wrote %d programs to %s\n", len(programs), trainDir)
		return nil
	},
}

func init() {
	trainCmd.Flags().IntVar(&trainCount, "count", 100, "number of programs to generate")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 4, "number of generation workers")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 1, "base seed; program i is seeded with seed+i")
	trainCmd.Flags().StringVar(&trainDir, "dir", "", "output directory (required)")
}
