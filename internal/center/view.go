package center

import (
	"time"

	"github.com/jmylchreest/lnbanner/internal/model"
	"github.com/jmylchreest/lnbanner/internal/registry"
	"github.com/jmylchreest/lnbanner/internal/resource"
)

// Banner is everything a view needs to draw one notification.
type Banner struct {
	Record      *model.Record
	Application registry.Application
	Style       model.BannerStyle
}

// Icon returns the icon path for the banner: the record's own icon, else the
// application's default icon, else the bundled default.
// The path is not checked for existence.
func (b Banner) Icon() string {
	if b.Record != nil && b.Record.IconPath != "" {
		return resource.ImagePath(b.Record.IconPath)
	}
	if b.Application.IconPath != "" {
		return resource.ImagePath(b.Application.IconPath)
	}
	return resource.ImagePath(resource.DefaultIcon)
}

// View renders and animates banners on behalf of the center.
//
// AnimateIn and AnimateOut start a transition and return a channel that is
// closed once it has finished. A nil channel means the transition completed
// synchronously. DisplayDuration is how long the banner stays fully visible
// between the two transitions.
type View interface {
	Render(b Banner) error
	AnimateIn(b Banner) <-chan struct{}
	DisplayDuration(b Banner) time.Duration
	AnimateOut(b Banner) <-chan struct{}
}

// ApplicationLookup resolves registered applications.
type ApplicationLookup interface {
	Lookup(id string) (registry.Application, bool)
}
