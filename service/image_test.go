package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitImageShrinksLongestEdge(t *testing.T) {
	assert := require.New(t)
	fitted, err := FitImage(pngBytes(t, 1000, 400), 500)
	assert.NoError(err)
	assert.Equal("image/png", fitted.ContentType)
	assert.Equal(".png", fitted.Ext)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(fitted.Data))
	assert.NoError(err)
	assert.Equal(500, cfg.Width)
	assert.Equal(200, cfg.Height)
}

func TestFitImageTallImage(t *testing.T) {
	assert := require.New(t)
	fitted, err := FitImage(pngBytes(t, 300, 1200), 500)
	assert.NoError(err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(fitted.Data))
	assert.NoError(err)
	assert.Equal(125, cfg.Width)
	assert.Equal(500, cfg.Height)
}

func TestFitImageNeverUpscales(t *testing.T) {
	assert := require.New(t)
	src := pngBytes(t, 120, 80)
	fitted, err := FitImage(src, 500)
	assert.NoError(err)
	assert.Equal(src, fitted.Data, "small images are stored untouched")
}

func TestFitImageRejectsGarbage(t *testing.T) {
	_, err := FitImage([]byte("not an image"), 500)
	require.Error(t, err)
}
