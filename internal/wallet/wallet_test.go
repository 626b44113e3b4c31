package wallet

import (
	"errors"
	"testing"
)

func TestProviderTransitions(t *testing.T) {
	p := NewProvider()
	var seen []Connection
	unsubscribe := p.Subscribe(func(c Connection) { seen = append(seen, c) })

	if err := p.Connect("0xAbC0000000000000000000000000000000000001"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := p.Connect("0xAbC0000000000000000000000000000000000001"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := p.Connect("0xDef0000000000000000000000000000000000002"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	p.Disconnect()
	p.Disconnect()

	if len(seen) != 3 {
		t.Fatalf("expected 3 transitions, got %d: %+v", len(seen), seen)
	}
	if !seen[0].Connected || seen[1].Address != "0xDef0000000000000000000000000000000000002" || seen[2].Connected {
		t.Fatalf("unexpected transitions %+v", seen)
	}

	unsubscribe()
	unsubscribe()
	_ = p.Connect("0x1")
	if len(seen) != 3 {
		t.Fatalf("listener called after unsubscribe")
	}
	if cur := p.Current(); !cur.Connected || cur.Address != "0x1" {
		t.Fatalf("unexpected current %+v", cur)
	}
}

func TestConnectRejectsBlankAddress(t *testing.T) {
	p := NewProvider()
	if err := p.Connect("   "); !errors.Is(err, ErrEmptyAddress) {
		t.Fatalf("expected ErrEmptyAddress, got %v", err)
	}
	if p.Current().Connected {
		t.Fatalf("blank address must not connect")
	}
}

func TestShortAddress(t *testing.T) {
	c := Connection{Address: "0x1234567890abcdef1234567890abcdef12345678", Connected: true}
	if got := c.Short(); got != "0x1234...5678" {
		t.Fatalf("unexpected short form %q", got)
	}
	if got := (Connection{Address: "0xabc"}).Short(); got != "0xabc" {
		t.Fatalf("short addresses should be kept, got %q", got)
	}
}
