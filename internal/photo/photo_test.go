package photo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	return img
}

func encoded(t *testing.T, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, sample()))
	return buf.Bytes()
}

func TestEncodeDetectsFormat(t *testing.T) {
	cases := map[string]func(io.Writer, image.Image) error{
		"image/png":  png.Encode,
		"image/jpeg": func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) },
		"image/gif":  func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) },
		"image/bmp":  bmp.Encode,
		"image/tiff": func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) },
	}
	for mime, enc := range cases {
		t.Run(mime, func(t *testing.T) {
			raw := encoded(t, enc)
			url, err := Encode(bytes.NewReader(raw), "foto.bin")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(url, "data:"+mime+";base64,"), url[:30])

			gotMime, data, err := Decode(url)
			require.NoError(t, err)
			assert.Equal(t, mime, gotMime)
			assert.Equal(t, raw, data)
		})
	}
}

func TestEncodeRejectsNonImages(t *testing.T) {
	_, err := Encode(strings.NewReader("%PDF-1.7 not a picture"), "doc.pdf")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestEncodeRejectsOversized(t *testing.T) {
	_, err := Encode(io.LimitReader(zeroReader{}, MaxBytes+10), "huge.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "http://x/y.png", "data:image/png,abc", "data:;base64,AA==", "data:image/png;base64,@@"} {
		_, _, err := Decode(in)
		assert.ErrorIs(t, err, ErrInvalidDataURL, in)
	}
}

func TestEncodeAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "a.png")
	gifPath := filepath.Join(dir, "b.gif")
	require.NoError(t, os.WriteFile(pngPath, encoded(t, png.Encode), 0o600))
	require.NoError(t, os.WriteFile(gifPath, encoded(t, func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }), 0o600))

	urls, err := EncodeAll(context.Background(), []Source{FileSource(gifPath), FileSource(pngPath), FileSource(gifPath)})
	require.NoError(t, err)
	require.Len(t, urls, 3)
	assert.Contains(t, urls[0], "image/gif")
	assert.Contains(t, urls[1], "image/png")
	assert.Contains(t, urls[2], "image/gif")
}

func TestEncodeAllFailsTheBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(good, encoded(t, png.Encode), 0o600))
	bad := Source{Name: "broken", Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") }}

	urls, err := EncodeAll(context.Background(), []Source{FileSource(good), bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Nil(t, urls)

	_, err = EncodeAll(context.Background(), []Source{FileSource(filepath.Join(dir, "missing.png"))})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeAllEmpty(t *testing.T) {
	urls, err := EncodeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
