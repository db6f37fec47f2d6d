package service

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyph(s string, x, w float64) pdf.Text {
	return pdf.Text{Font: "Helvetica", FontSize: 10, X: x, Y: 700, W: w, S: s}
}

func TestWordsFromGlyphsSplitsOnSpaces(t *testing.T) {
	glyphs := []pdf.Text{
		glyph("R", 10, 5), glyph("s", 15, 5), glyph(" ", 20, 3),
		glyph("5", 23, 5), glyph("0", 28, 5),
	}

	tokens := wordsFromGlyphs(glyphs, 792)

	require.Len(t, tokens, 2)
	assert.Equal(t, "Rs", tokens[0].Text)
	assert.Equal(t, "50", tokens[1].Text)

	c, ok := tokens[0].Centroid()
	require.True(t, ok)
	assert.InDelta(t, 15.0, c.X, 1e-9)
	assert.InDelta(t, 87.0, c.Y, 1e-9)
}

func TestWordsFromGlyphsSplitsOnGaps(t *testing.T) {
	glyphs := []pdf.Text{glyph("1", 10, 5), glyph("2", 40, 5), glyph("3", 45.5, 5)}

	tokens := wordsFromGlyphs(glyphs, 792)

	require.Len(t, tokens, 2)
	assert.Equal(t, "1", tokens[0].Text)
	assert.Equal(t, "23", tokens[1].Text)
}

func TestWordsFromGlyphsMultiRuneRuns(t *testing.T) {
	tokens := wordsFromGlyphs([]pdf.Text{glyph("Account: 1234567", 10, 80)}, 792)

	require.Len(t, tokens, 2)
	assert.Equal(t, "Account:", tokens[0].Text)
	assert.Equal(t, "1234567", tokens[1].Text)
}

func TestWordsFromGlyphsEmpty(t *testing.T) {
	assert.Empty(t, wordsFromGlyphs(nil, 792))
	assert.Empty(t, wordsFromGlyphs([]pdf.Text{glyph("  ", 0, 5)}, 792))
}

func TestExtractTokensRejectsGarbage(t *testing.T) {
	_, err := NewPDFProcessor().ExtractTokens([]byte("not a pdf"), "")
	assert.Error(t, err)
}

func TestPageFromImageName(t *testing.T) {
	cases := map[string]int{
		"doc_1_Im0.png":    1,
		"doc_03_Im1.jpg":   3,
		"doc_12_thumb.png": 12,
		"doc_2_Im_x_y.png": 2,
	}
	for name, want := range cases {
		got, ok := pageFromImageName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"Im0.png", "doc_Im0.png", "doc_0_Im0.png", "other_1_Im0.png", "doc_7"} {
		_, ok := pageFromImageName(name)
		assert.False(t, ok, name)
	}
}
