package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
)

// TestEndToEndBuildTrimPruneDumpRestore drives the full build-graph ->
// trim-graph -> prune-tips -> pop-bubbles -> print-contigs chain through a
// temp directory, the same tempDir-plus-cleanup shape
// fusion/cmd/fusion_e2e_test.go's TestEndToEndSmall uses.
func TestEndToEndBuildTrimPruneDumpRestore(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	fastaPath := filepath.Join(tempDir, "reads.fa")
	assert.NoError(t, os.WriteFile(fastaPath, []byte(">r1\nACGGTCATTGACCAGTTA\n>r2\nACGGTCATTGACCAGTTA\n"), 0644))

	built := filepath.Join(tempDir, "built")
	assert.NoError(t, runBuildGraph([]string{"-k", "15", "-T", "2", "-O", built, "-I", fastaPath}))

	trimmed := filepath.Join(tempDir, "trimmed")
	assert.NoError(t, runTrimGraph([]string{"-G", built, "-O", trimmed, "-C", "1"}))

	pruned := filepath.Join(tempDir, "pruned")
	assert.NoError(t, runPruneTips([]string{"-G", trimmed, "-O", pruned}))

	popped := filepath.Join(tempDir, "popped")
	assert.NoError(t, runPopBubbles([]string{"-G", pruned, "-O", popped}))

	contigsPath := filepath.Join(tempDir, "contigs.fa")
	assert.NoError(t, runPrintContigs([]string{"-G", popped, "-o", contigsPath}))

	out, err := os.ReadFile(contigsPath)
	assert.NoError(t, err)
	assert.True(t, len(out) > 0, "print-contigs produced no output")

	dumpPath := filepath.Join(tempDir, "dump.txt")
	assert.NoError(t, runDumpGraph([]string{"-G", popped, "-o", dumpPath}))

	restored := filepath.Join(tempDir, "restored")
	assert.NoError(t, runRestoreGraph([]string{"-i", dumpPath, "-O", restored}))

	assert.NoError(t, runLintGraph([]string{"-G", restored}))
}
