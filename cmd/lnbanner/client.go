package main

import (
	"context"
	"time"

	"github.com/jmylchreest/lnbanner/internal/dbus"
)

// requestTimeout bounds every call to a running daemon.
const requestTimeout = 5 * time.Second

// withClient connects to the daemon's control service and runs fn.
func withClient(fn func(ctx context.Context, client *dbus.Client) error) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	return fn(ctx, client)
}
