package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ApplicationSection struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting position.
	PosX uint32 `toml:"pos_x"`
	PosY uint32 `toml:"pos_y"`
	// Window starting size in logical units.
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	// Request a framebuffer at the display's native pixel density.
	HighDPI bool `toml:"high_dpi"`
}

type LogSection struct {
	Level string `toml:"level"`
}

type RendererSection struct {
	ClearColor [4]float32 `toml:"clear_color"`
	// Directory holding the compiled UI shader blobs.
	ShaderDir string `toml:"shader_dir"`
	// Rebuild the UI pipeline when a shader blob changes on disk.
	WatchShaders bool `toml:"watch_shaders"`
	// Enable the Vulkan validation layers.
	Validation bool `toml:"validation"`
	// Maximum number of frames recorded ahead of the GPU.
	MaxFramesInFlight uint32 `toml:"max_frames_in_flight"`
}

type UISection struct {
	VertexStagingBytes uint32  `toml:"vertex_staging_bytes"`
	IndexStagingBytes  uint32  `toml:"index_staging_bytes"`
	AntiAliasing       bool    `toml:"anti_aliasing"`
	CircleSegments     uint32  `toml:"circle_segments"`
	CurveSegments      uint32  `toml:"curve_segments"`
	ArcSegments        uint32  `toml:"arc_segments"`
	GlobalAlpha        float32 `toml:"global_alpha"`
	// Clamp texture coordinates instead of repeating them.
	ClampSampler bool `toml:"clamp_sampler"`
	// Optional TrueType/OpenType font; the built-in face is used when empty.
	FontFile string  `toml:"font_file"`
	FontSize float32 `toml:"font_size"`
	// Optional AngelCode .fnt bitmap font added to the atlas.
	BitmapFont string `toml:"bitmap_font"`
}

// Config is the on-disk configuration, usually read from cumulus.toml.
type Config struct {
	Application ApplicationSection `toml:"application"`
	Log         LogSection         `toml:"log"`
	Renderer    RendererSection    `toml:"renderer"`
	UI          UISection          `toml:"ui"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationSection{
			Name:    "Cumulus",
			PosX:    100,
			PosY:    100,
			Width:   800,
			Height:  600,
			HighDPI: true,
		},
		Log: LogSection{
			Level: "info",
		},
		Renderer: RendererSection{
			ClearColor:        [4]float32{0.16, 0.47, 0.34, 1.0},
			ShaderDir:         "shaders",
			WatchShaders:      false,
			Validation:        false,
			MaxFramesInFlight: 2,
		},
		UI: UISection{
			VertexStagingBytes: 512 * 1024,
			IndexStagingBytes:  128 * 1024,
			AntiAliasing:       true,
			CircleSegments:     22,
			CurveSegments:      22,
			ArcSegments:        22,
			GlobalAlpha:        1.0,
			FontSize:           13,
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error:
// the defaults are returned as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogInfo("config file %q not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("application window size must be non-zero, got %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.UI.VertexStagingBytes == 0 || c.UI.IndexStagingBytes == 0 {
		return fmt.Errorf("ui staging sizes must be non-zero")
	}
	if c.UI.GlobalAlpha < 0 || c.UI.GlobalAlpha > 1 {
		return fmt.Errorf("ui global_alpha must be within [0,1], got %f", c.UI.GlobalAlpha)
	}
	if c.Renderer.MaxFramesInFlight == 0 {
		c.Renderer.MaxFramesInFlight = 2
	}
	return nil
}
