package insights

import (
	"context"
	"errors"
	"io"
	"sync"

	"coinpal/internal/logger"
	"coinpal/internal/models"
	"coinpal/internal/notify"
	"coinpal/internal/wallet"
)

const source = "insights"

type Fetcher interface {
	Fetch(ctx context.Context, address string) (*models.PortfolioInsights, error)
}

// Source is the wallet connection the viewer follows.
type Source interface {
	Current() wallet.Connection
	Subscribe(wallet.Listener) (unsubscribe func())
}

type Option func(*Viewer)

func WithNotifier(n notify.Notifier) Option {
	return func(v *Viewer) { v.notifier = notify.OrDiscard(n) }
}

// Viewer shows the insights of the connected wallet. Each connection change
// starts one fetch and cancels the previous one; late responses from a
// superseded fetch are dropped.
type Viewer struct {
	fetcher  Fetcher
	notifier notify.Notifier

	mu          sync.Mutex
	mounted     bool
	unsubscribe func()
	cancel      context.CancelFunc
	generation  uint64
	handled     bool
	conn        wallet.Connection
	insights    *models.PortfolioInsights
	loading     bool
	err         error

	wg sync.WaitGroup
}

func NewViewer(fetcher Fetcher, opts ...Option) *Viewer {
	v := &Viewer{fetcher: fetcher, notifier: notify.Discard}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount subscribes to src and handles its current connection. Mounting an
// already mounted viewer does nothing.
func (v *Viewer) Mount(src Source) {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.handled = false
	v.mu.Unlock()

	unsubscribe := src.Subscribe(v.handle)

	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		unsubscribe()
		return
	}
	v.unsubscribe = unsubscribe
	v.mu.Unlock()

	v.handle(src.Current())
}

// Unmount stops following the wallet and cancels any in-flight fetch.
func (v *Viewer) Unmount() {
	v.mu.Lock()
	v.mounted = false
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.stopFetchLocked()
	v.loading = false
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (v *Viewer) handle(conn wallet.Connection) {
	v.mu.Lock()
	if !v.mounted || (v.handled && conn == v.conn) {
		v.mu.Unlock()
		return
	}
	v.handled = true
	v.conn = conn
	v.stopFetchLocked()
	v.insights = nil
	v.err = nil
	v.loading = false
	if !conn.Connected {
		v.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.loading = true
	gen := v.generation
	v.wg.Add(1)
	v.mu.Unlock()

	go v.fetch(ctx, gen, conn.Address)
}

// stopFetchLocked cancels the current fetch and invalidates its result.
func (v *Viewer) stopFetchLocked() {
	v.generation++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Viewer) fetch(ctx context.Context, gen uint64, address string) {
	defer v.wg.Done()
	res, err := v.fetcher.Fetch(ctx, address)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		logger.Debugf("discarding stale insights response for %s", address)
		return
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.loading = false
	v.insights = res
	v.err = err
	v.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warnf("fetch insights: %v", err)
		v.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Source:  source,
			Message: "Error fetching insights: " + ErrorMessage(err),
		})
	}
}

// Wait blocks until every started fetch has returned.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

func (v *Viewer) Insights() *models.PortfolioInsights {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.insights
}

func (v *Viewer) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Connection returns the wallet connection the viewer last handled.
func (v *Viewer) Connection() wallet.Connection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn
}

// Render writes the current insights as markdown. Nothing is written before
// the first successful response.
func (v *Viewer) Render(w io.Writer) error {
	in := v.Insights()
	if in == nil {
		return nil
	}
	return RenderMarkdown(w, in)
}
