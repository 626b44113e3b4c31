package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"coinpal/internal/kyc"
	"coinpal/internal/location"
	"coinpal/internal/upload"
)

type kycCmd struct {
	name       string
	email      string
	phone      string
	document   string
	permission string
}

func (*kycCmd) Name() string     { return "kyc" }
func (*kycCmd) Synopsis() string { return "submit KYC details" }
func (*kycCmd) Usage() string {
	return `kyc -name <name> -email <email> -phone <phone> [-document <path>] [-permission granted|prompt|denied]

Submit the KYC form. The document URL is taken from the session (earlier
runs are only visible with session.store redis), or from uploading
-document first. With -permission the location check runs before
submitting and its result is included.
`
}

func (c *kycCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "full name")
	f.StringVar(&c.email, "email", "", "email address")
	f.StringVar(&c.phone, "phone", "", "phone number")
	f.StringVar(&c.document, "document", "", "identity document to upload before submitting")
	f.StringVar(&c.permission, "permission", "", "run the location check with this permission state first")
}

func (c *kycCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, state, err := a.scope(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session: %v\n", err)
		return subcommands.ExitFailure
	}
	backendClient := a.client(a.cfg.Dashboard.BackendBaseURL)

	if c.document != "" {
		uploader, err := upload.New(ctx, a.client(a.cfg.Dashboard.UploadBaseURL), upload.WithNotifier(a.notifier))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if err := uploader.SelectFile(c.document); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", c.document, err)
			return subcommands.ExitUsageError
		}
		if _, err := uploader.Submit(ctx); err != nil {
			return subcommands.ExitFailure
		}
	}

	var restriction kyc.RestrictionSource
	if c.permission != "" {
		geo, err := newTerminalGeolocator(c.permission, os.Stdin, os.Stderr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		checker := location.New(backendClient, geo, location.WithNotifier(a.notifier))
		// a failed or denied check leaves the location unknown
		_, _ = checker.Check(ctx)
		restriction = checker
	}

	flow, err := kyc.New(ctx, backendClient, restriction, kyc.WithNotifier(a.notifier))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if state.Get() == "" {
		fmt.Fprintln(os.Stderr, "warning: no document uploaded in this session")
	}
	resp, err := flow.Submit(ctx, c.name, c.email, c.phone)
	if err != nil {
		return subcommands.ExitFailure
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp, "", "  "); err != nil {
		fmt.Println(string(resp))
	} else {
		fmt.Println(pretty.String())
	}
	return subcommands.ExitSuccess
}
