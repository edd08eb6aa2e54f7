// Package daemon provides the long-running pieces of lnbanner serve.
// It watches the configuration file for changes and presents the daemon's
// own events as banners through the notification center.
package daemon
