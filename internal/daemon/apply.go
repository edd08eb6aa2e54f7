package daemon

import (
	"github.com/jmylchreest/lnbanner/internal/config"
	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
	"github.com/jmylchreest/lnbanner/internal/resource"
)

// StyleSetter is implemented by the notification center.
type StyleSetter interface {
	SetBannerStyle(style model.BannerStyle)
}

// SelfApplication is the registry entry lnbanner presents its own banners under.
func SelfApplication() registry.Application {
	return registry.Application{
		ID:       config.SelfApplicationID,
		Name:     "lnbanner",
		IconPath: resource.DefaultIcon,
	}
}

// NewRegistry builds the application registry for cfg, including SelfApplication.
func NewRegistry(cfg *config.Config) *registry.Registry {
	reg := registry.New(cfg.Applications...)
	_ = reg.Upsert(SelfApplication())
	return reg
}

// ApplyConfig brings the registry and banner style in line with cfg after a reload.
//
// The registry contents are replaced, keeping SelfApplication. The banner
// style is only applied when it differs from prev, so a style chosen at
// runtime survives reloads that do not touch it. Records already queued
// are unaffected either way.
func ApplyConfig(prev, cfg *config.Config, reg *registry.Registry, styler StyleSetter) {
	reg.Replace(cfg.Applications, config.SelfApplicationID)

	if prev == nil || prev.Banner.Style != cfg.Banner.Style {
		styler.SetBannerStyle(cfg.Banner.Style)
	}
}
