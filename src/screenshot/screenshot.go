// Package screenshot reports display geometry for popup placement and the
// OCR helper's geometry queries.
package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"light-dict/src/windowing"
)

// Displays returns the bounds of every active display.
func Displays() ([]image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	out := make([]image.Rectangle, n)
	for i := range out {
		out[i] = screenshot.GetDisplayBounds(i)
	}
	return out, nil
}

// VirtualBounds returns the union of all active displays.
func VirtualBounds() (windowing.Rect, error) {
	displays, err := Displays()
	if err != nil {
		return windowing.Rect{}, err
	}
	return toRect(union(displays)), nil
}

// DisplayAt returns the display containing p, or the first display when p is
// off-screen.
func DisplayAt(p windowing.Point) (windowing.Rect, error) {
	displays, err := Displays()
	if err != nil {
		return windowing.Rect{}, err
	}
	return toRect(containing(displays, image.Pt(p.X, p.Y))), nil
}

func union(bounds []image.Rectangle) image.Rectangle {
	var u image.Rectangle
	for _, b := range bounds {
		u = u.Union(b)
	}
	return u
}

func containing(bounds []image.Rectangle, p image.Point) image.Rectangle {
	for _, b := range bounds {
		if p.In(b) {
			return b
		}
	}
	if len(bounds) == 0 {
		return image.Rectangle{}
	}
	return bounds[0]
}

func toRect(r image.Rectangle) windowing.Rect {
	return windowing.Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
