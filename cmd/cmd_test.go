package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI invokes the root command with args and returns its error; pass
// that to ExitCode for the exit code it maps to.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

const identitySource = `
FUNC 1 4
PARAM I64
REF 0
RET
HASH 0x0000 0x0000 0x0000
ENDFUNC
CONST I64 0x0000 0x002a
CALL 0
HALT
`

func TestAssembleCommandWritesBinary(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.nolang")
	bin := filepath.Join(dir, "prog.bin")
	require.NoError(t, os.WriteFile(src, []byte(identitySource), 0o644))

	err := runCLI(t, "assemble", src, "-o", bin)
	require.NoError(t, err)
	require.Equal(t, exitOK, ExitCode(err))

	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestHashCommandPatchesAndRuns(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.nolang")
	rawBin := filepath.Join(dir, "prog.raw.bin")
	hashedBin := filepath.Join(dir, "prog.hashed.bin")
	require.NoError(t, os.WriteFile(src, []byte(identitySource), 0o644))

	require.NoError(t, runCLI(t, "assemble", src, "-o", rawBin))
	require.NoError(t, runCLI(t, "hash", rawBin, "-o", hashedBin))

	err := runCLI(t, "run", hashedBin)
	require.NoError(t, err)
	require.Equal(t, exitOK, ExitCode(err))
}

func TestVerifyRejectsTruncatedProgram(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0x01, 0x02, 0x03}, 0o644))

	err := runCLI(t, "verify", bin)
	require.Error(t, err)
	require.Equal(t, exitUsage, ExitCode(err))
}

func TestGenerateCommandWritesValidProgram(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "gen.bin")

	err := runCLI(t, "generate", "--seed", "5", "--shape", "arithmetic", "-o", out)
	require.NoError(t, err)

	require.NoError(t, runCLI(t, "verify", out))
}

func TestTrainCommandWritesCorpus(t *testing.T) {
	dir := t.TempDir()
	err := runCLI(t, "train", "--count", "6", "--workers", "2", "--dir", dir)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 6)
}
