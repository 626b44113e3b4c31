package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"coinpal/internal/insights"
	"coinpal/internal/wallet"
)

type insightsCmd struct {
	address string
	raw     bool
}

func (*insightsCmd) Name() string     { return "insights" }
func (*insightsCmd) Synopsis() string { return "show portfolio insights for a wallet" }
func (*insightsCmd) Usage() string {
	return `insights -address <wallet address> [-raw]

Connect the wallet and show the insights report for it.
`
}

func (c *insightsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.address, "address", "", "wallet address")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal rendering")
}

func (c *insightsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	provider := wallet.NewProvider()
	viewer := insights.NewViewer(
		insights.NewClient(a.client(a.cfg.Dashboard.InsightsBaseURL)),
		insights.WithNotifier(a.notifier),
	)
	viewer.Mount(provider)
	defer viewer.Unmount()

	if c.address == "" {
		fmt.Println("Please connect your wallet to view portfolio insights.")
		return subcommands.ExitUsageError
	}
	if err := provider.Connect(c.address); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	fmt.Fprintf(os.Stderr, "Connected as: %s\n", viewer.Connection().Short())
	fmt.Fprintln(os.Stderr, "Loading portfolio insights...")
	viewer.Wait()

	if viewer.Err() != nil {
		return subcommands.ExitFailure
	}
	var b strings.Builder
	if err := viewer.Render(&b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if b.Len() == 0 {
		fmt.Println("No insights available. Try connecting your wallet again or check back later.")
		return subcommands.ExitSuccess
	}
	if c.raw {
		fmt.Print(b.String())
	} else {
		printMarkdown(b.String())
	}
	return subcommands.ExitSuccess
}
