package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"coinpal/internal/backend"
	"coinpal/internal/config"
	"coinpal/internal/logger"
	"coinpal/internal/notify"
	"coinpal/internal/redis"
	"coinpal/internal/uploadstate"
)

// as a CLI application, it has a very short lived lifecycle, so global flags are fine.

var (
	configPath = flag.String("config", os.Getenv("COINPAL_CONFIG"), "path to the YAML config file")
	sessionID  = flag.String("session", "", "dashboard session id; a new one is generated when empty")
)

// app bundles what every subcommand needs.
type app struct {
	cfg      *config.Config
	notifier notify.Notifier
	closers  []io.Closer
}

func newApp() (*app, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	notifier := stderrNotifier(os.Stderr)
	if strings.EqualFold(cfg.Log.Level, "debug") {
		notifier = notify.Tee(notifier, notify.Log)
	}
	return &app{cfg: cfg, notifier: notifier}, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func (a *app) client(baseURL string) *backend.Client {
	return backend.New(baseURL, a.cfg.Dashboard.Timeout)
}

// scope opens the session's upload state and returns a context that
// provides it.
func (a *app) scope(ctx context.Context) (context.Context, *uploadstate.State, error) {
	id := *sessionID
	if id == "" {
		id = uuid.NewString()
		fmt.Fprintf(os.Stderr, "session: %s\n", id)
	} else if msg := sessionReuseWarning(a.cfg.Session.Store); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	var store uploadstate.Store
	switch a.cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := redis.NewRedisClient(ctx, a.cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client)
		store = uploadstate.NewRedisStore(client, a.cfg.Session.TTL)
	default:
		store = uploadstate.NewMemoryStore()
	}

	state, err := uploadstate.Open(ctx, store, id)
	if err != nil {
		return nil, nil, err
	}
	return uploadstate.NewContext(ctx, state), state, nil
}

// sessionReuseWarning explains that an explicit -session id cannot see
// earlier runs when the store only lives for this process.
func sessionReuseWarning(store string) string {
	if store != config.SessionStoreMemory {
		return ""
	}
	return "warning: session.store is memory, so nothing from earlier runs of this session is available; use session.store: redis to share it"
}

func stderrNotifier(w io.Writer) notify.Notifier {
	return notify.Func(func(n notify.Notification) {
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(string(n.Level)), n.Message)
	})
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
