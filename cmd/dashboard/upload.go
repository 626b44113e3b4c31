package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"coinpal/internal/upload"
)

type uploadCmd struct {
	file string
}

func (*uploadCmd) Name() string     { return "upload" }
func (*uploadCmd) Synopsis() string { return "upload a KYC document and print its gateway URL" }
func (*uploadCmd) Usage() string {
	return `upload -file <path>

Send a document to the upload endpoint. The returned URL is stored in the
session. A later kyc command with the same -session reuses it only when
session.store is redis; the memory store lasts for a single run.
`
}

func (c *uploadCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "document to upload")
}

func (c *uploadCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, _, err = a.scope(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session: %v\n", err)
		return subcommands.ExitFailure
	}
	client, err := upload.New(ctx, a.client(a.cfg.Dashboard.UploadBaseURL), upload.WithNotifier(a.notifier))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.file != "" {
		if err := client.SelectFile(c.file); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", c.file, err)
			return subcommands.ExitUsageError
		}
	}
	url, err := client.Submit(ctx)
	if err != nil {
		return subcommands.ExitFailure
	}
	fmt.Println(url)
	return subcommands.ExitSuccess
}
