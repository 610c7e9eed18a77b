package normalize

import (
	"fmt"
	"sort"
	"strings"
)

// Preset bundles the conversion settings for a quality tier. The width
// is an upper bound; height follows the source aspect ratio.
type Preset struct {
	Name   string
	Width  int
	QScale int
	GOP    int
}

var presets = map[string]Preset{
	"fast":     {Name: "fast", Width: 960, QScale: 4, GOP: 60},
	"balanced": {Name: "balanced", Width: 1280, QScale: 3, GOP: 48},
	"sharp":    {Name: "sharp", Width: 1920, QScale: 2, GOP: 36},
}

// PresetByName looks up a preset. The empty string resolves to
// "balanced".
func PresetByName(name string) (Preset, error) {
	if name == "" {
		name = "balanced"
	}
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames returns the available preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's settings onto the builder.
func (p Preset) Apply(b *Builder) *Builder {
	return b.SetQScale(p.QScale).SetGOP(p.GOP).SetScale(p.Width, 0)
}
