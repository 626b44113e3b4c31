package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"coinpal/internal/location"
)

var errPromptRejected = errors.New("location access not allowed")

// terminalGeolocator answers the permission query with a fixed state and
// asks on the terminal when the state is prompt.
type terminalGeolocator struct {
	permission location.Permission
	in         *bufio.Reader
	out        io.Writer
}

func newTerminalGeolocator(permission string, in io.Reader, out io.Writer) (*terminalGeolocator, error) {
	p := location.Permission(strings.ToLower(strings.TrimSpace(permission)))
	switch p {
	case location.PermissionGranted, location.PermissionPrompt, location.PermissionDenied:
	default:
		return nil, fmt.Errorf("unknown permission %q, want granted, prompt or denied", permission)
	}
	return &terminalGeolocator{permission: p, in: bufio.NewReader(in), out: out}, nil
}

func (g *terminalGeolocator) QueryPermission(context.Context) (location.Permission, error) {
	return g.permission, nil
}

func (g *terminalGeolocator) RequestPosition(ctx context.Context) error {
	fmt.Fprint(g.out, "Allow CoinPal to use your location? [y/N] ")
	line, err := g.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		g.permission = location.PermissionGranted
		return nil
	default:
		g.permission = location.PermissionDenied
		return errPromptRejected
	}
}
