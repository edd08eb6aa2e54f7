package dbus

import (
	"path/filepath"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lnbanner/internal/model"
)

// DBusNotification represents an observed org.freedesktop.Notifications.Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	if v, ok := n.Hints["desktop-entry"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// ImagePath extracts the image-path hint.
func (n *DBusNotification) ImagePath() string {
	if v, ok := n.Hints["image-path"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ApplicationID returns the identifier the notification is presented under:
// the desktop-entry hint, falling back to the application name.
func (n *DBusNotification) ApplicationID() string {
	if entry := n.DesktopEntry(); entry != "" {
		return strings.TrimSuffix(entry, ".desktop")
	}
	return n.AppName
}

// iconPath returns an image file for the banner. Themed icon names cannot be
// resolved to files and are dropped.
func (n *DBusNotification) iconPath() string {
	for _, candidate := range []string{n.ImagePath(), n.AppIcon} {
		candidate = strings.TrimPrefix(candidate, "file://")
		if filepath.IsAbs(candidate) {
			return candidate
		}
	}
	return ""
}

// Record converts the notification into a banner record.
// The summary becomes the title and the body the detail. Notifications
// without a summary fail with model.ErrEmptyTitle.
func (n *DBusNotification) Record() (*model.Record, error) {
	rec, err := model.NewRecord(n.Summary, n.Body, n.iconPath())
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
