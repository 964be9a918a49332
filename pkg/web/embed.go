package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"os"
)

//go:embed assets templates
var content embed.FS

// BundledAssets returns the stock sector icons rooted at assets/.
func BundledAssets() fs.FS {
	sub, err := fs.Sub(content, "assets")
	if err != nil {
		log.Fatalf("web.BundledAssets: %v", err)
	}
	return sub
}

// AssetFS layers an optional override directory over the bundled icons.
// Files in dir shadow bundled files of the same name.
func AssetFS(dir string) fs.FS {
	if dir == "" {
		return BundledAssets()
	}
	return overlayFS{top: os.DirFS(dir), base: BundledAssets()}
}

type overlayFS struct {
	top, base fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}

func parseTemplates() (*template.Template, error) {
	return template.New("").ParseFS(content, "templates/*.gohtml")
}
