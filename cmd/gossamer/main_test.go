package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunBuildGraphRequiresOutputPath(t *testing.T) {
	err := runBuildGraph([]string{"-I", "reads.fasta"})
	assert.Error(t, err)
}

func TestRunBuildGraphRequiresAnInput(t *testing.T) {
	err := runBuildGraph([]string{"-O", "out"})
	assert.Error(t, err)
}

func TestRunBuildGraphRejectsBadK(t *testing.T) {
	err := runBuildGraph([]string{"-O", "out", "-I", "reads.fasta", "-k", "2"})
	assert.Error(t, err)
}

func TestRunTrimGraphRequiresInputPath(t *testing.T) {
	err := runTrimGraph([]string{"-O", "out"})
	assert.Error(t, err)
}

func TestRunTrimGraphRequiresOutputUnlessEstimateOnly(t *testing.T) {
	err := runTrimGraph([]string{"-G", "in"})
	assert.Error(t, err)
}

func TestRunPruneTipsRequiresBothPaths(t *testing.T) {
	assert.Error(t, runPruneTips(nil))
	assert.Error(t, runPruneTips([]string{"-G", "in"}))
	assert.Error(t, runPruneTips([]string{"-O", "out"}))
}

func TestRunPopBubblesRequiresBothPaths(t *testing.T) {
	assert.Error(t, runPopBubbles(nil))
}

func TestRunPrintContigsRequiresInputPath(t *testing.T) {
	assert.Error(t, runPrintContigs(nil))
}

func TestRunUpgradeGraphRequiresBothPaths(t *testing.T) {
	assert.Error(t, runUpgradeGraph([]string{"-G", "in"}))
}

func TestRunLintGraphRequiresInputPath(t *testing.T) {
	assert.Error(t, runLintGraph(nil))
}

func TestRunRestoreGraphRequiresOutputPath(t *testing.T) {
	assert.Error(t, runRestoreGraph(nil))
}

func TestUnknownCommandIsRejected(t *testing.T) {
	_, ok := commands["not-a-command"]
	assert.False(t, ok)
}

func TestAllCommandsRegistered(t *testing.T) {
	for _, name := range []string{
		"build-graph", "trim-graph", "prune-tips", "pop-bubbles",
		"print-contigs", "upgrade-graph", "lint-graph", "dump-graph",
		"restore-graph",
	} {
		_, ok := commands[name]
		assert.True(t, ok, name)
	}
}
