package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"framefeed/pkg/logger"
	"framefeed/pkg/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEngine(ctx context.Context) (normalize.Engine, error) {
	return nil, errors.New("no ffmpeg in tests")
}

func writePNG(t *testing.T, img image.Image) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path, buf.Bytes()
}

func TestNormalizerFile_KeepsSmallerOriginal(t *testing.T) {
	flat := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range flat.Pix {
		flat.Pix[i] = 0xff
	}
	path, raw := writePNG(t, flat)

	n := newNormalizerWith(normalize.DefaultImageOptions(), noEngine, logger.Nop())
	defer n.Close()

	f, err := n.File(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "shot.png", f.Name)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, raw, f.Data)
}

func TestNormalizerFile_CompressesLargeImage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	noisy := image.NewNRGBA(image.Rect(0, 0, 800, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			noisy.Set(x, y, color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	path, raw := writePNG(t, noisy)

	n := newNormalizerWith(normalize.DefaultImageOptions(), noEngine, logger.Nop())
	defer n.Close()

	f, err := n.File(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "shot.jpg", f.Name)
	assert.Equal(t, normalize.MimeJPEG, f.ContentType)
	assert.Less(t, len(f.Data), len(raw))
}

func TestNormalizerFile_UnknownTypePassesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	n := newNormalizerWith(normalize.DefaultImageOptions(), noEngine, logger.Nop())
	defer n.Close()

	f, err := n.File(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), f.Data)
}
