package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/pkg/formatting"
)

const (
	EnvCapturePadWidth     = "QUILL_CAPTURE_PAD_WIDTH"
	EnvCapturePadHeight    = "QUILL_CAPTURE_PAD_HEIGHT"
	EnvCaptureStrokeWidth  = "QUILL_CAPTURE_STROKE_WIDTH"
	EnvCaptureFontSize     = "QUILL_CAPTURE_FONT_SIZE"
	EnvCapturePadding      = "QUILL_CAPTURE_PADDING"
	EnvCaptureDefaultFont  = "QUILL_CAPTURE_DEFAULT_FONT"
	EnvCaptureDateLayout   = "QUILL_CAPTURE_DATE_LAYOUT"
	EnvCaptureMaxImageSize = "QUILL_CAPTURE_MAX_IMAGE_SIZE"
)

// CaptureConfig holds the rendering parameters for signature capture.
type CaptureConfig struct {
	PadWidth     int     `toml:"pad_width"`
	PadHeight    int     `toml:"pad_height"`
	StrokeWidth  float64 `toml:"stroke_width"`
	FontSize     float64 `toml:"font_size"`
	Padding      int     `toml:"padding"`
	DefaultFont  string  `toml:"default_font"`
	DateLayout   string  `toml:"date_layout"`
	MaxImageSize string  `toml:"max_image_size"`
}

// Options converts the config into capture session options.
func (c *CaptureConfig) Options() capture.Options {
	size, _ := formatting.ParseBytes(c.MaxImageSize)
	return capture.Options{
		PadWidth:      c.PadWidth,
		PadHeight:     c.PadHeight,
		StrokeWidth:   c.StrokeWidth,
		FontSize:      c.FontSize,
		Padding:       c.Padding,
		DefaultFont:   c.DefaultFont,
		DateLayout:    c.DateLayout,
		MaxImageBytes: size,
		Clock:         time.Now,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CaptureConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *CaptureConfig) Merge(overlay *CaptureConfig) {
	if overlay.PadWidth != 0 {
		c.PadWidth = overlay.PadWidth
	}
	if overlay.PadHeight != 0 {
		c.PadHeight = overlay.PadHeight
	}
	if overlay.StrokeWidth != 0 {
		c.StrokeWidth = overlay.StrokeWidth
	}
	if overlay.FontSize != 0 {
		c.FontSize = overlay.FontSize
	}
	if overlay.Padding != 0 {
		c.Padding = overlay.Padding
	}
	if overlay.DefaultFont != "" {
		c.DefaultFont = overlay.DefaultFont
	}
	if overlay.DateLayout != "" {
		c.DateLayout = overlay.DateLayout
	}
	if overlay.MaxImageSize != "" {
		c.MaxImageSize = overlay.MaxImageSize
	}
}

func (c *CaptureConfig) loadDefaults() {
	d := capture.DefaultOptions()
	if c.PadWidth == 0 {
		c.PadWidth = d.PadWidth
	}
	if c.PadHeight == 0 {
		c.PadHeight = d.PadHeight
	}
	if c.StrokeWidth == 0 {
		c.StrokeWidth = d.StrokeWidth
	}
	if c.FontSize == 0 {
		c.FontSize = d.FontSize
	}
	if c.Padding == 0 {
		c.Padding = d.Padding
	}
	if c.DefaultFont == "" {
		c.DefaultFont = d.DefaultFont
	}
	if c.DateLayout == "" {
		c.DateLayout = d.DateLayout
	}
	if c.MaxImageSize == "" {
		c.MaxImageSize = "2MB"
	}
}

func (c *CaptureConfig) loadEnv() {
	if v := os.Getenv(EnvCapturePadWidth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PadWidth = n
		}
	}
	if v := os.Getenv(EnvCapturePadHeight); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PadHeight = n
		}
	}
	if v := os.Getenv(EnvCaptureStrokeWidth); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.StrokeWidth = f
		}
	}
	if v := os.Getenv(EnvCaptureFontSize); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FontSize = f
		}
	}
	if v := os.Getenv(EnvCapturePadding); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Padding = n
		}
	}
	if v := os.Getenv(EnvCaptureDefaultFont); v != "" {
		c.DefaultFont = v
	}
	if v := os.Getenv(EnvCaptureDateLayout); v != "" {
		c.DateLayout = v
	}
	if v := os.Getenv(EnvCaptureMaxImageSize); v != "" {
		c.MaxImageSize = v
	}
}

func (c *CaptureConfig) validate() error {
	if c.PadWidth < 1 || c.PadHeight < 1 {
		return fmt.Errorf("invalid pad size: %dx%d", c.PadWidth, c.PadHeight)
	}
	if c.StrokeWidth <= 0 {
		return fmt.Errorf("invalid stroke_width: %v", c.StrokeWidth)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid font_size: %v", c.FontSize)
	}
	if c.Padding < 0 {
		return fmt.Errorf("invalid padding: %d", c.Padding)
	}
	if !slices.Contains(capture.Fonts(), c.DefaultFont) {
		return fmt.Errorf("unknown default_font: %q", c.DefaultFont)
	}
	if _, err := formatting.ParseBytes(c.MaxImageSize); err != nil {
		return fmt.Errorf("invalid max_image_size: %w", err)
	}
	return nil
}
