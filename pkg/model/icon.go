package model

import "strings"

// InlineIconPrefix marks an icon value that carries its own image payload.
const InlineIconPrefix = "data:"

// DefaultAssetBase is where referenced icons are served from.
const DefaultAssetBase = "/assets/"

// IconRef is either a static asset name or an inline data URL.
type IconRef string

// IsInline reports whether the icon embeds its image data.
func (r IconRef) IsInline() bool {
	return strings.HasPrefix(string(r), InlineIconPrefix)
}

// Resolve returns the URL a renderer should use for the icon. Inline icons
// are returned untouched; anything else is joined onto base.
func (r IconRef) Resolve(base string) string {
	if r.IsInline() {
		return string(r)
	}
	if base == "" {
		base = DefaultAssetBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(string(r), "/")
}

// String shortens inline payloads so they are safe to log.
func (r IconRef) String() string {
	if r.IsInline() {
		s := string(r)
		if i := strings.IndexByte(s, ','); i > 0 {
			return s[:i] + ",…"
		}
	}
	return string(r)
}
