package site

import (
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
)

// Sources converts the configured collections into store sources, keeping their order.
func Sources(cfg config.ContentConfig) []content.Source {
	out := make([]content.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		out = append(out, content.Source{
			Name:       src.Name,
			Path:       src.Path,
			Type:       content.Type(src.Type),
			Networking: src.Networking,
		})
	}
	return out
}
