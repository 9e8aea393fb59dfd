// Package curriculum holds the course levels shown on the curriculum pages.
package curriculum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"gopkg.in/yaml.v3"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
)

// ErrLevelNotFound is returned for unknown or missing level ids.
var ErrLevelNotFound = errors.New("curriculum: level not found")

// Module is one unit of a level.
type Module struct {
	Title string `yaml:"title"`
	Desc  string `yaml:"desc"`
}

// Level is one step of the curriculum roadmap.
type Level struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Age         string   `yaml:"age"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Modules     []Module `yaml:"modules"`
	Projects    []string `yaml:"projects"`
	Skills      []string `yaml:"skills"`
}

type document struct {
	Levels []Level `yaml:"levels"`
}

// Catalog is an immutable set of levels.
type Catalog struct {
	levels []Level
	byID   map[string]int
}

// Load reads name from fsys.
func Load(fsys fs.FS, name string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("curriculum: read %s: %w", name, err)
	}
	return Parse(data)
}

// Parse decodes a YAML curriculum document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("curriculum: parse: %w", err)
	}
	c := &Catalog{byID: make(map[string]int, len(doc.Levels))}
	for _, lvl := range doc.Levels {
		lvl.ID = strings.TrimSpace(lvl.ID)
		if lvl.ID == "" || strings.TrimSpace(lvl.Title) == "" {
			continue
		}
		if _, dup := c.byID[lvl.ID]; dup {
			return nil, fmt.Errorf("curriculum: duplicate level %q", lvl.ID)
		}
		c.levels = append(c.levels, lvl)
		c.byID[lvl.ID] = len(c.levels) - 1
	}
	sort.SliceStable(c.levels, func(i, j int) bool {
		a, errA := strconv.Atoi(c.levels[i].ID)
		b, errB := strconv.Atoi(c.levels[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return c.levels[i].ID < c.levels[j].ID
	})
	for i, lvl := range c.levels {
		c.byID[lvl.ID] = i
	}
	return c, nil
}

// Levels returns the levels in roadmap order.
func (c *Catalog) Levels() []Level {
	if c == nil {
		return nil
	}
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// Lookup returns the level with id.
func (c *Catalog) Lookup(id string) (Level, error) {
	if c == nil {
		return Level{}, ErrLevelNotFound
	}
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Level{}, ErrLevelNotFound
	}
	return c.levels[i], nil
}

// Detail renders the level page body.
func Detail(lvl Level, prefix string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="hero py-20" data-level="`).Text(lvl.ID).Raw(`"><div class="container mx-auto px-6 grid md:grid-cols-2 gap-12 items-center"><div>`)
		hw.Raw(`<span id="level-age" class="text-sm font-bold text-[#4CC9F0] uppercase tracking-wider">`).Text(lvl.Age).Raw(`</span>`)
		hw.Raw(`<h1 id="level-title" class="text-4xl font-extrabold text-white mt-2 mb-4">`).Text(lvl.Title).Raw(`</h1>`)
		hw.Raw(`<p id="level-description" class="text-gray-400">`).Text(lvl.Description).Raw(`</p></div>`)
		if lvl.Image != "" {
			hw.Raw(`<img id="level-image" src="`).URL(paths.Apply(prefix, lvl.Image)).Raw(`" alt="`).Text(lvl.Title).Raw(`" class="w-full max-h-80 object-contain" onerror="this.style.display='none'">`)
		}
		hw.Raw(`</div></section>`)

		hw.Raw(`<section class="container mx-auto px-6 py-12"><h2 class="text-2xl font-bold text-white mb-6">Modules</h2><div id="modules-container" class="grid md:grid-cols-2 gap-6">`)
		for i, mod := range lvl.Modules {
			hw.Raw(`<div class="module-card reveal-up" data-reveal-id="module-`).Rawf("%d", i+1).Raw(`">`)
			hw.Rawf(`<div class="font-bold text-[#4CC9F0] mb-1">Module %d</div>`, i+1)
			hw.Raw(`<h4 class="text-lg font-bold text-white mb-2">`).Text(mod.Title).Raw(`</h4>`)
			hw.Raw(`<p class="text-sm text-gray-400">`).Text(mod.Desc).Raw(`</p></div>`)
		}
		hw.Raw(`</div></section>`)

		hw.Raw(`<section class="container mx-auto px-6 py-12 grid md:grid-cols-2 gap-12">`)
		hw.Raw(`<div><h2 class="text-2xl font-bold text-white mb-6">Projects</h2><ul id="projects-list">`)
		for _, p := range lvl.Projects {
			hw.Raw(`<li class="mb-2 text-gray-300"><i data-lucide="check-circle" class="inline w-4 h-4 text-green-500 mr-2"></i>`).Text(p).Raw(`</li>`)
		}
		hw.Raw(`</ul></div>`)
		hw.Raw(`<div><h2 class="text-2xl font-bold text-white mb-6">Skills</h2><div id="skills-container">`)
		for _, s := range lvl.Skills {
			hw.Raw(`<span class="skill-tag">`).Text(s).Raw(`</span>`)
		}
		hw.Raw(`</div></div></section>`)
		return hw.Err()
	})
}

// NotFound renders the message shown for an unknown level.
func NotFound(prefix string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := markup.NewWriter(w)
		hw.Raw(`<section class="hero text-center py-24" data-level-missing><h2 class="text-3xl font-bold text-white mb-4">Level Not Found</h2>`)
		hw.Raw(`<p class="text-gray-400">Please return to the curriculum page to select a valid level.</p>`)
		hw.Raw(`<a href="`).URL(paths.Apply(prefix, "curriculum.html")).Raw(`" class="btn btn-primary mt-6 inline-block">Go Back</a></section>`)
		return hw.Err()
	})
}
