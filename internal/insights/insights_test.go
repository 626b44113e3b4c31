package insights

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coinpal/internal/apperr"
	"coinpal/internal/backend"
	"coinpal/internal/models"
	"coinpal/internal/notify"
	"coinpal/internal/wallet"
)

const sampleInsights = `{
  "requested_wallet_address": "0xabc",
  "data_based_on_mock_user": "user_123",
  "portfolio_composition": {
    "user_id": "user_123",
    "total_portfolio_value": 12345.5,
    "asset_composition": [
      {"asset_id": "BTC", "name": "Bitcoin", "quantity": 0.5, "current_price": 20000, "current_value": 10000, "percentage": 81.0034,
       "cost_basis_total": 8000, "unrealized_gain_loss_abs": 2000, "unrealized_gain_loss_percent": 25}
    ],
    "cash_balance": 2345.5,
    "cash_percentage": 18.9966,
    "hhi_score": 0.69
  },
  "investment_recommendations": ["Consider diversifying away from BTC."],
  "asset_specific_news": {
    "BTC": {"asset_id": "BTC", "processed_news": [
      {"original_headline": "Bitcoin rallies", "source": "MockNews", "llm_summary": "Prices went up.", "llm_sentiment_label": "positive"}
    ]}
  }
}`

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/portfolio/0xabc/insights" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(sampleInsights))
	}))
	defer srv.Close()

	c := NewClient(backend.NewWithHTTPClient(srv.URL, time.Second, srv.Client()))
	in, err := c.Fetch(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if in.PortfolioComposition.TotalPortfolioValue != 12345.5 || len(in.PortfolioComposition.AssetComposition) != 1 {
		t.Fatalf("unexpected composition %+v", in.PortfolioComposition)
	}
	if in.HistoricalPerformanceSummary != nil || in.GlobalMarketSentiment != nil {
		t.Fatalf("absent sections should stay nil")
	}
	if _, err := c.Fetch(context.Background(), ""); !apperr.Is(err, apperr.InputMissing) {
		t.Fatalf("expected InputMissing for empty address, got %v", err)
	}
}

func TestClientFetchErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Portfolio not found"}`))
	}))
	defer srv.Close()

	c := NewClient(backend.NewWithHTTPClient(srv.URL, time.Second, srv.Client()))
	_, err := c.Fetch(context.Background(), "0xabc")
	if !apperr.Is(err, apperr.TransportFailure) {
		t.Fatalf("expected TransportFailure, got %v", err)
	}
	if msg := ErrorMessage(err); msg != "Portfolio not found" {
		t.Fatalf("unexpected message %q", msg)
	}
	if ErrorMessage(nil) != "" {
		t.Fatalf("nil error should have no message")
	}
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	gates   map[string]chan struct{}
	results map[string]*models.PortfolioInsights
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, address string) (*models.PortfolioInsights, error) {
	f.mu.Lock()
	f.calls = append(f.calls, address)
	gate := f.gates[address]
	res := f.results[address]
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		// ignore cancellation so late responses reach the viewer
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestViewerFetchesOnConnect(t *testing.T) {
	fetcher := &fakeFetcher{results: map[string]*models.PortfolioInsights{
		"0xa": {RequestedWalletAddress: "0xa"},
	}}
	provider := wallet.NewProvider()
	v := NewViewer(fetcher)
	v.Mount(provider)
	defer v.Unmount()

	v.Wait()
	if fetcher.callCount() != 0 || v.Insights() != nil {
		t.Fatalf("disconnected wallet must not fetch")
	}
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("nothing should render before the first response, got %q %v", buf.String(), err)
	}

	_ = provider.Connect("0xa")
	v.Wait()
	if fetcher.callCount() != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.callCount())
	}
	if in := v.Insights(); in == nil || in.RequestedWalletAddress != "0xa" {
		t.Fatalf("unexpected insights %+v", in)
	}
	if v.Loading() {
		t.Fatalf("loading should be cleared")
	}

	provider.Disconnect()
	v.Wait()
	if v.Insights() != nil {
		t.Fatalf("insights should be cleared on disconnect")
	}
	if fetcher.callCount() != 1 {
		t.Fatalf("disconnect must not fetch")
	}
}

func TestViewerMountWithConnectedWallet(t *testing.T) {
	fetcher := &fakeFetcher{results: map[string]*models.PortfolioInsights{"0xa": {RequestedWalletAddress: "0xa"}}}
	provider := wallet.NewProvider()
	_ = provider.Connect("0xa")
	v := NewViewer(fetcher)
	v.Mount(provider)
	v.Mount(provider)
	defer v.Unmount()
	v.Wait()
	if fetcher.callCount() != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.callCount())
	}
}

func TestViewerDiscardsStaleResponse(t *testing.T) {
	gateA := make(chan struct{})
	fetcher := &fakeFetcher{
		gates: map[string]chan struct{}{"0xa": gateA},
		results: map[string]*models.PortfolioInsights{
			"0xa": {RequestedWalletAddress: "0xa"},
			"0xb": {RequestedWalletAddress: "0xb"},
		},
	}
	provider := wallet.NewProvider()
	v := NewViewer(fetcher)
	v.Mount(provider)
	defer v.Unmount()

	_ = provider.Connect("0xa")
	if !v.Loading() {
		t.Fatalf("expected loading while the first fetch is pending")
	}
	_ = provider.Connect("0xb")

	deadline := time.Now().Add(2 * time.Second)
	for v.Insights() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(gateA)
	v.Wait()

	if in := v.Insights(); in == nil || in.RequestedWalletAddress != "0xb" {
		t.Fatalf("stale response overwrote the current one: %+v", in)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("expected one fetch per address, got %d", fetcher.callCount())
	}
}

func TestViewerUnmountStopsUpdates(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &fakeFetcher{
		gates:   map[string]chan struct{}{"0xa": gate},
		results: map[string]*models.PortfolioInsights{"0xa": {RequestedWalletAddress: "0xa"}},
	}
	provider := wallet.NewProvider()
	v := NewViewer(fetcher)
	v.Mount(provider)
	_ = provider.Connect("0xa")
	v.Unmount()
	close(gate)
	v.Wait()

	if v.Insights() != nil {
		t.Fatalf("response after unmount must be discarded")
	}
	_ = provider.Connect("0xb")
	v.Wait()
	if fetcher.callCount() != 1 {
		t.Fatalf("unmounted viewer must not fetch, got %d calls", fetcher.callCount())
	}
}

func TestViewerErrorNotifies(t *testing.T) {
	fetcher := &fakeFetcher{err: apperr.Wrap(apperr.TransportFailure, errors.New("connection refused"))}
	rec := &notify.Recorder{}
	provider := wallet.NewProvider()
	v := NewViewer(fetcher, WithNotifier(rec))
	v.Mount(provider)
	defer v.Unmount()

	_ = provider.Connect("0xa")
	v.Wait()
	if v.Err() == nil || v.Insights() != nil {
		t.Fatalf("expected error state, got err=%v insights=%v", v.Err(), v.Insights())
	}
	notes := rec.All()
	if len(notes) != 1 || notes[0].Level != notify.LevelError || !strings.Contains(notes[0].Message, "connection refused") {
		t.Fatalf("unexpected notifications %+v", notes)
	}
}

func TestViewerCancelsPreviousFetch(t *testing.T) {
	var cancelled int32
	fetcher := fetcherFunc(func(ctx context.Context, address string) (*models.PortfolioInsights, error) {
		if address == "0xa" {
			<-ctx.Done()
			atomic.AddInt32(&cancelled, 1)
			return nil, ctx.Err()
		}
		return &models.PortfolioInsights{RequestedWalletAddress: address}, nil
	})
	provider := wallet.NewProvider()
	v := NewViewer(fetcher)
	v.Mount(provider)
	defer v.Unmount()

	_ = provider.Connect("0xa")
	_ = provider.Connect("0xb")
	v.Wait()
	if atomic.LoadInt32(&cancelled) != 1 {
		t.Fatalf("previous fetch was not cancelled")
	}
	if v.Err() != nil {
		t.Fatalf("cancelled fetch must not surface an error: %v", v.Err())
	}
}

type fetcherFunc func(ctx context.Context, address string) (*models.PortfolioInsights, error)

func (f fetcherFunc) Fetch(ctx context.Context, address string) (*models.PortfolioInsights, error) {
	return f(ctx, address)
}
