package loaders

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/ui"
)

// FontLoader adds the fonts named in the [ui] config section to an atlas.
type FontLoader struct {
	FontFile   string
	FontSize   float32
	BitmapFont string
}

func NewFontLoader(section core.UISection) *FontLoader {
	return &FontLoader{
		FontFile:   section.FontFile,
		FontSize:   section.FontSize,
		BitmapFont: section.BitmapFont,
	}
}

// Load adds the built-in face plus any configured fonts to atlas and makes
// the last successfully loaded one the default. A configured font that fails
// to load is logged and skipped.
func (fl *FontLoader) Load(atlas *ui.FontAtlas) *ui.Font {
	def := atlas.AddDefault()

	if fl.FontFile != "" {
		f, err := fl.loadTTF(atlas)
		if err != nil {
			core.LogError("failed to load font: %s", err)
		} else {
			def = f
		}
	}
	if fl.BitmapFont != "" {
		f, err := atlas.AddBitmapFont(fl.BitmapFont)
		if err != nil {
			core.LogError("failed to load bitmap font: %s", err)
		} else if fl.FontFile == "" {
			def = f
		}
	}
	atlas.SetDefaultFont(def)
	return def
}

func (fl *FontLoader) loadTTF(atlas *ui.FontAtlas) (*ui.Font, error) {
	data, err := os.ReadFile(fl.FontFile)
	if err != nil {
		return nil, err
	}
	size := fl.FontSize
	if size <= 0 {
		size = 13
	}
	name := strings.TrimSuffix(filepath.Base(fl.FontFile), filepath.Ext(fl.FontFile))

	return atlas.AddTTF(name, data, size)
}
