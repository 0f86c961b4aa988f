// Package photo turns picked image files into the data URLs stored inside the
// document.
package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// MaxBytes bounds a single encoded image.
const MaxBytes = 10 << 20

var (
	// ErrNotImage is returned for content no registered decoder accepts.
	ErrNotImage = errors.New("photo: not an image")
	// ErrTooLarge is returned when the source exceeds MaxBytes.
	ErrTooLarge = errors.New("photo: image too large")
	// ErrInvalidDataURL is returned by Decode for malformed input.
	ErrInvalidDataURL = errors.New("photo: invalid data url")
)

// Encode reads an image from r and returns it as a base64 data URL. The MIME
// type comes from the decoded image format, not from name.
func Encode(r io.Reader, name string) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(raw) > MaxBytes {
		return "", fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrNotImage)
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// Decode splits a data URL produced by Encode into its MIME type and bytes.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mime, data, nil
}

// Source is one picked file.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads the image at path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// EncodeAll encodes every source concurrently. The result keeps the order of
// sources; any failure fails the whole batch.
func EncodeAll(ctx context.Context, sources []Source) ([]string, error) {
	out := make([]string, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rc, err := src.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", src.Name, err)
			}
			defer rc.Close()
			url, err := Encode(rc, src.Name)
			if err != nil {
				return err
			}
			out[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
