// Package dbus exposes the notification center on the session bus.
//
// The control service (io.github.jmylchreest.lnbanner) lets other processes
// present banners, clear pending ones and switch the banner style, and emits
// Presented, Dismissed and Cleared signals as banners come and go. A Client
// wraps the calls for the lnbanner CLI. A Monitor can additionally observe
// org.freedesktop.Notifications traffic and mirror it as banners.
package dbus
