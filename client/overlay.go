package client

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	overlayLabelRunes  = 30
	overlayLabelOffset = 18
)

var overlayColor = color.RGBA{G: 255, A: 255}

// DrawBoxes writes a copy of the image with every token's polygon outlined
// and its first 30 characters printed just above the first vertex. Tokens
// without geometry are skipped. The output format follows outPath's extension.
func DrawBoxes(imagePath string, tokens []dto.Token, outPath string) error {
	src, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	for _, t := range tokens {
		if len(t.Box) == 0 {
			continue
		}
		pts := make([]image.Point, len(t.Box))
		for i, p := range t.Box {
			pts[i] = image.Pt(int(p.X), int(p.Y))
		}
		for i := range pts {
			strokeLine(canvas, pts[i], pts[(i+1)%len(pts)])
		}

		label := []rune(t.Text)
		if len(label) > overlayLabelRunes {
			label = label[:overlayLabelRunes]
		}
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(overlayColor),
			Face: face,
			Dot:  fixed.P(pts[0].X, max(0, pts[0].Y-overlayLabelOffset)+ascent),
		}
		d.DrawString(string(label))
	}

	if err := imaging.Save(canvas, outPath); err != nil {
		return fmt.Errorf("failed to save annotated image: %w", err)
	}
	return nil
}

// strokeLine draws a two-pixel wide segment with Bresenham's algorithm.
func strokeLine(img *image.RGBA, a, b image.Point) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	x, y, e := a.X, a.Y, dx+dy
	for {
		img.SetRGBA(x, y, overlayColor)
		img.SetRGBA(x+1, y, overlayColor)
		img.SetRGBA(x, y+1, overlayColor)
		img.SetRGBA(x+1, y+1, overlayColor)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
