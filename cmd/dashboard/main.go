// Command dashboard drives the CoinPal dashboard components from a terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&uploadCmd{}, "kyc")
	commander.Register(&locationCmd{}, "kyc")
	commander.Register(&kycCmd{}, "kyc")
	commander.Register(&chatCmd{}, "assistant")
	commander.Register(&insightsCmd{}, "portfolio")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
