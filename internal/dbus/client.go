package dbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
)

// Client calls the control service of a running lnbanner serve.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient opens a private session bus connection to the control service.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, out []any, args ...any) error {
	call := c.obj.CallWithContext(ctx, DBusInterface+"."+method, 0, args...)
	if call.Err != nil {
		return fromDBusError(call.Err)
	}
	if len(out) == 0 {
		return nil
	}
	if err := call.Store(out...); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	return nil
}

// Present queues a banner and returns its record id.
// Fails with *center.UnregisteredApplicationError for unknown applications.
func (c *Client) Present(ctx context.Context, appID, title, detail, icon string) (string, error) {
	var id string
	if err := c.call(ctx, "Present", []any{&id}, appID, title, detail, icon); err != nil {
		return "", err
	}
	return id, nil
}

// ClearPending removes queued banners for appID.
func (c *Client) ClearPending(ctx context.Context, appID string) (int, error) {
	var removed uint32
	if err := c.call(ctx, "ClearPending", []any{&removed}, appID); err != nil {
		return 0, err
	}
	return int(removed), nil
}

// ClearAllPending removes every queued banner.
func (c *Client) ClearAllPending(ctx context.Context) (int, error) {
	var removed uint32
	if err := c.call(ctx, "ClearAllPending", []any{&removed}); err != nil {
		return 0, err
	}
	return int(removed), nil
}

// SetBannerStyle sets the style used from the next banner on.
func (c *Client) SetBannerStyle(ctx context.Context, style model.BannerStyle) error {
	return c.call(ctx, "SetBannerStyle", nil, style.String())
}

// BannerStyle returns the style the next banner will use.
func (c *Client) BannerStyle(ctx context.Context) (model.BannerStyle, error) {
	var style string
	if err := c.call(ctx, "GetBannerStyle", []any{&style}); err != nil {
		return model.StyleDark, err
	}
	return model.ParseBannerStyle(style)
}

// Status returns the center snapshot and recent banner outcomes.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var data string
	if err := c.call(ctx, "Status", []any{&data}); err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}

// ListApplications returns the applications registered with the daemon.
func (c *Client) ListApplications(ctx context.Context) ([]registry.Application, error) {
	var data string
	if err := c.call(ctx, "ListApplications", []any{&data}); err != nil {
		return nil, err
	}

	var apps []registry.Application
	if err := json.Unmarshal([]byte(data), &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, nil
}
