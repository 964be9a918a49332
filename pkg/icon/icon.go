// Package icon converts uploaded images into inline data URLs and loads
// icons back into images for raster rendering.
package icon

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/vanderheijden86/wellradar/pkg/model"
)

// DefaultMaxBytes caps uploads at 2 MiB.
const DefaultMaxBytes = 2 << 20

const svgMIME = "image/svg+xml"

var (
	// ErrNotImage is returned when an upload is not recognizably an image.
	ErrNotImage = errors.New("not an image")
	// ErrTooLarge is returned when an upload exceeds the byte limit.
	ErrTooLarge = errors.New("icon too large")
	// ErrVectorIcon is returned by Load for SVG icons, which are not rasterized.
	ErrVectorIcon = errors.New("vector icon")
	// ErrMalformedDataURL is returned for inline values that cannot be decoded.
	ErrMalformedDataURL = errors.New("malformed data URL")
)

// EncodeDataURL reads the whole upload and returns it as a base64 data URL.
// The MIME type is sniffed from the content, with the file extension as a
// tiebreaker for formats sniffing cannot see (SVG in particular).
func EncodeDataURL(r io.Reader, filename string, maxBytes int64) (model.IconRef, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading icon: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrNotImage)
	}

	mt := DetectMIME(data, filename)
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%w: %s (%s)", ErrNotImage, filename, mt)
	}
	return model.IconRef("data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// DetectMIME sniffs data and falls back to the filename extension.
func DetectMIME(data []byte, filename string) string {
	mt := http.DetectContentType(data)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".svg" || looksLikeSVG(data) {
		return svgMIME
	}
	if byExt := mime.TypeByExtension(ext); strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	return mt
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// DecodeDataURL splits an inline icon into its MIME type and raw bytes.
// Both base64 and percent-free plain payloads are accepted.
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, model.InlineIconPrefix) {
		return "", nil, ErrMalformedDataURL
	}
	meta, payload, ok := strings.Cut(s[len(model.InlineIconPrefix):], ",")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	isBase64 := strings.HasSuffix(meta, ";base64")
	meta = strings.TrimSuffix(meta, ";base64")
	mt := meta
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if mt == "" {
		mt = "text/plain"
	}
	if !isBase64 {
		return mt, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
	}
	return mt, data, nil
}

// Load returns the image behind ref. Inline icons are decoded from their
// payload; asset names are opened from assets.
func Load(ref model.IconRef, assets fs.FS) (image.Image, error) {
	var (
		data []byte
		mt   string
		err  error
	)
	if ref.IsInline() {
		mt, data, err = DecodeDataURL(string(ref))
		if err != nil {
			return nil, err
		}
	} else {
		if assets == nil {
			return nil, fmt.Errorf("icon %s: no asset filesystem", ref)
		}
		name := strings.TrimPrefix(path.Clean("/"+string(ref)), "/")
		data, err = fs.ReadFile(assets, name)
		if err != nil {
			return nil, fmt.Errorf("icon %s: %w", ref, err)
		}
		mt = DetectMIME(data, name)
	}

	if mt == svgMIME {
		return nil, ErrVectorIcon
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return img, nil
}
