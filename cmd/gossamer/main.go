// Command gossamer assembles short reads into contigs via a de Bruijn
// graph. It dispatches on its first argument the way
// original_source/src/GossApp.cc dispatches on a command name, running
// each subcommand's own flag.FlagSet over the remaining arguments.
package main

import (
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
)

type command struct {
	usage string
	run   func(args []string) error
}

var commands = map[string]command{
	"build-graph":   {"build-graph -k K [-B bufGB] [-T threads] -O out [-I fasta...] [-i fastq...] [--line-in lines...]", runBuildGraph},
	"trim-graph":    {"trim-graph -G in -O out [-C cutoff | --estimate-only] [--scale-cutoff-by-k]", runTrimGraph},
	"prune-tips":    {"prune-tips -G in -O out [-C cutoff] [--relative-cutoff r] [-T threads] [--iterate N]", runPruneTips},
	"pop-bubbles":   {"pop-bubbles -G in -O out [-T threads] [--max-sequence-length L] [--max-edit-distance D] [--max-error-rate r] [-C cutoff] [--relative-cutoff r]", runPopBubbles},
	"print-contigs": {"print-contigs -G in [-o out] [--min-length L] [--min-coverage C] [--no-sequence] [--verbose-headers] [--no-line-breaks] [--print-rcs]", runPrintContigs},
	"upgrade-graph": {"upgrade-graph -G in -O out", runUpgradeGraph},
	"lint-graph":    {"lint-graph -G in", runLintGraph},
	"dump-graph":    {"dump-graph -G in [-o out]", runDumpGraph},
	"restore-graph": {"restore-graph -O out [-i in]", runRestoreGraph},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: gossamer <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %s\n", cmd.usage)
	}
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "gossamer: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := cmd.run(os.Args[2:]); err != nil {
		log.Error.Printf("gossamer %s: %v", os.Args[1], err)
		os.Exit(1)
	}
}
