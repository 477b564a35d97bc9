package capture

import (
	"fmt"
	"image"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Signature font names accepted by the type mode.
const (
	FontScript       = "script"
	FontBoldScript   = "bold-script"
	FontMediumScript = "medium-script"
	FontSmallCaps    = "small-caps"
)

var fontSources = map[string][]byte{
	FontScript:       goitalic.TTF,
	FontBoldScript:   gobolditalic.TTF,
	FontMediumScript: gomediumitalic.TTF,
	FontSmallCaps:    gosmallcapsitalic.TTF,
}

var (
	fontsOnce sync.Once
	fonts     map[string]*opentype.Font
	fontsErr  error
)

// Fonts returns the names of the available signature fonts.
func Fonts() []string {
	names := make([]string, 0, len(fontSources))
	for name := range fontSources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func loadFont(name string) (*opentype.Font, error) {
	fontsOnce.Do(func() {
		fonts = make(map[string]*opentype.Font, len(fontSources))
		for n, src := range fontSources {
			f, err := opentype.Parse(src)
			if err != nil {
				fontsErr = fmt.Errorf("parse font %s: %w", n, err)
				return
			}
			fonts[n] = f
		}
	})
	if fontsErr != nil {
		return nil, fontsErr
	}

	f, ok := fonts[name]
	if !ok {
		return nil, ErrUnknownFont
	}
	return f, nil
}

// NormalizeText trims s and puts it in NFC form.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// RenderText draws text in the named font onto a white canvas sized to the
// measured text plus padding on every side, and returns it as a PNG data URI.
func RenderText(text, fontName string, size float64, padding int) (string, error) {
	text = NormalizeText(text)
	if text == "" {
		return "", ErrBlankText
	}

	f, err := loadFont(fontName)
	if err != nil {
		return "", err
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return "", fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width+2*padding, height+2*padding))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  ink,
		Face: face,
		Dot:  fixed.P(padding, padding+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	return encodePNG(img)
}
