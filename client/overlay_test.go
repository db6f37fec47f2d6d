package client

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteScan(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func isOverlayGreen(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0 && g == 0xffff && b == 0
}

func TestDrawBoxesOutlinesTokens(t *testing.T) {
	in := whiteScan(t, 120, 80)
	out := filepath.Join(t.TempDir(), "boxes.png")
	tokens := []dto.Token{
		{Text: "20,000", Box: dto.RectBox(10, 30, 40, 20)},
		{Text: "no geometry"},
	}

	require.NoError(t, DrawBoxes(in, tokens, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(120, 80), img.Bounds().Size())

	// Corners are (10,30) (50,30) (50,50) (10,50).
	for _, p := range []image.Point{{30, 30}, {50, 40}, {30, 50}, {10, 40}, {10, 30}} {
		assert.True(t, isOverlayGreen(img.At(p.X, p.Y)), "edge pixel %v", p)
	}
	assert.False(t, isOverlayGreen(img.At(30, 40)), "box interior")
	assert.False(t, isOverlayGreen(img.At(100, 70)), "outside")
}

func TestDrawBoxesLabelsAboveBox(t *testing.T) {
	in := whiteScan(t, 120, 80)
	out := filepath.Join(t.TempDir(), "boxes.png")
	tokens := []dto.Token{{Text: "MMMM", Box: dto.RectBox(20, 40, 60, 20)}}

	require.NoError(t, DrawBoxes(in, tokens, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)

	// The label sits in the 18 pixel band above the first vertex.
	labelled := false
	for y := 22; y < 40; y++ {
		for x := 20; x < 20+4*7; x++ {
			if isOverlayGreen(img.At(x, y)) {
				labelled = true
			}
		}
	}
	assert.True(t, labelled)
}

func TestDrawBoxesMissingImage(t *testing.T) {
	err := DrawBoxes(filepath.Join(t.TempDir(), "nope.png"), nil, filepath.Join(t.TempDir(), "out.png"))
	assert.ErrorContains(t, err, "failed to open image")
}
