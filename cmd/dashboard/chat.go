package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/subcommands"

	"coinpal/internal/chat"
	"coinpal/internal/wallet"
)

type chatCmd struct {
	replyPath string
	wallet    string
	raw       bool
}

func (*chatCmd) Name() string     { return "chat" }
func (*chatCmd) Synopsis() string { return "talk to the CoinPal assistant" }
func (*chatCmd) Usage() string {
	return `chat [-wallet <address>] [-reply-path <jsonpath>] [-raw]

Read messages from stdin, one per line, and print the assistant's replies.
The reply text is extracted from the JSON body with -reply-path.
`
}

func (c *chatCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.replyPath, "reply-path", "$.response", "JSONPath of the reply text in the assistant response")
	f.StringVar(&c.wallet, "wallet", "", "connected wallet address forwarded with each message")
	f.BoolVar(&c.raw, "raw", false, "print replies without markdown rendering")
}

func (c *chatCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	opts := []chat.Option{chat.WithNotifier(a.notifier)}
	if c.wallet != "" {
		provider := wallet.NewProvider()
		if err := provider.Connect(c.wallet); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		opts = append(opts, chat.WithWallet(provider))
	}
	assistant := chat.New(a.client(a.cfg.Dashboard.BackendBaseURL), opts...)

	fmt.Fprintln(os.Stderr, "Welcome to CoinPal! Ask me about cryptocurrency prices, market trends, or investment advice.")
	c.loop(ctx, assistant, os.Stdin)
	return subcommands.ExitSuccess
}

func (c *chatCmd) loop(ctx context.Context, assistant *chat.Assistant, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			return
		}
		before := len(assistant.Messages())
		if err := assistant.Send(ctx, scanner.Text()); err != nil {
			continue
		}
		msgs := assistant.Messages()
		if len(msgs) <= before {
			continue
		}
		reply := replyText(msgs[len(msgs)-1].Text, c.replyPath)
		if c.raw {
			fmt.Println(reply)
		} else {
			printMarkdown(reply)
		}
	}
}

// replyText extracts the string at path from a JSON body. Bodies that are
// not JSON, or have no string at path, are returned unchanged.
func replyText(body, path string) string {
	body = strings.TrimSpace(body)
	if path == "" {
		return body
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return body
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return body
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return body
}
