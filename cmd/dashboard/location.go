package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"coinpal/internal/location"
)

type locationCmd struct {
	permission string
}

func (*locationCmd) Name() string     { return "location" }
func (*locationCmd) Synopsis() string { return "check whether Coinbase is restricted where you are" }
func (*locationCmd) Usage() string {
	return `location [-permission granted|prompt|denied]

Ask the location service whether Coinbase is restricted for your network
address. With -permission prompt you are asked before the check runs.
`
}

func (c *locationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.permission, "permission", string(location.PermissionPrompt), "geolocation permission state: granted, prompt or denied")
}

func (c *locationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	geo, err := newTerminalGeolocator(c.permission, os.Stdin, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	checker := location.New(a.client(a.cfg.Dashboard.BackendBaseURL), geo, location.WithNotifier(a.notifier))
	state, err := checker.Check(ctx)
	if err != nil {
		return subcommands.ExitFailure
	}
	fmt.Println(state)
	if res := checker.Result(); res != nil && res.Country != "" {
		fmt.Printf("country: %s\n", res.Country)
	}
	return subcommands.ExitSuccess
}
