// Package wallet tracks the connected wallet account and tells subscribers
// when it changes.
package wallet

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"coinpal/internal/apperr"
)

var ErrEmptyAddress = apperr.Wrap(apperr.InputMissing, errors.New("wallet address is empty"))

// Connection is a snapshot of the wallet state.
type Connection struct {
	Address   string
	Connected bool
}

// Short abbreviates the address as 0x1234...abcd.
func (c Connection) Short() string {
	if len(c.Address) <= 10 {
		return c.Address
	}
	return c.Address[:6] + "..." + c.Address[len(c.Address)-4:]
}

type Listener func(Connection)

// Provider holds the current connection. Listeners run synchronously, in
// subscription order, and only when the connection actually changes.
type Provider struct {
	mu        sync.Mutex
	current   Connection
	listeners map[int]Listener
	nextID    int
}

func NewProvider() *Provider {
	return &Provider{listeners: make(map[int]Listener)}
}

func (p *Provider) Current() Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Connect switches to address. Reconnecting the same address is a no-op.
func (p *Provider) Connect(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrEmptyAddress
	}
	p.transition(Connection{Address: address, Connected: true})
	return nil
}

func (p *Provider) Disconnect() {
	p.transition(Connection{})
}

// Subscribe registers l and returns a function that removes it. The returned
// function is safe to call more than once.
func (p *Provider) Subscribe(l Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) transition(next Connection) {
	p.mu.Lock()
	if next == p.current {
		p.mu.Unlock()
		return
	}
	p.current = next
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, p.listeners[id])
	}
	p.mu.Unlock()

	for _, l := range ls {
		l(next)
	}
}
