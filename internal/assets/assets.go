// Package assets serves the board's stylesheet and live-update script from
// files embedded via go:embed. Each file gets a content hash so pages can
// link a versioned URL that browsers cache indefinitely.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Prefix is the URL path the file server is mounted under.
const Prefix = "/static/"

//go:embed static
var staticFS embed.FS

// versions maps a file name (e.g. "style.css") to the first 8 bytes of its
// SHA-256, hex encoded.
var versions = map[string]string{}

func init() {
	_ = mime.AddExtensionType(".map", "application/json")

	entries, err := fs.ReadDir(staticFS, "static")
	if err != nil {
		panic("assets: reading embedded files: " + err.Error())
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(staticFS, "static/"+e.Name())
		if err != nil {
			panic("assets: reading " + e.Name() + ": " + err.Error())
		}
		sum := sha256.Sum256(data)
		versions[e.Name()] = hex.EncodeToString(sum[:8])
	}
}

// URL returns the versioned URL for name, e.g. "/static/style.css?v=1a2b...".
// Unknown names get an unversioned URL.
func URL(name string) string {
	v, ok := versions[name]
	if !ok {
		return Prefix + name
	}
	return Prefix + name + "?v=" + v
}

// mimeFromExt returns the MIME type for a file extension.
// Falls back to the Go standard library's MIME type database,
// then to "application/octet-stream" if unknown.
func mimeFromExt(ext string) string {
	switch ext {
	case ".js", ".mjs":
		return "application/javascript"
	case ".css":
		return "text/css; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

// FileServer serves the embedded files. Requests carrying the current version
// are cached as immutable; everything else must revalidate.
// The handler expects paths relative to Prefix (strip it before calling).
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("assets: failed to create sub filesystem: " + err.Error())
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		if ext := strings.ToLower(path.Ext(name)); ext != "" {
			w.Header().Set("Content-Type", mimeFromExt(ext))
		}

		if v := r.URL.Query().Get("v"); v != "" && v == versions[name] {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}

		fileServer.ServeHTTP(w, r)
	})
}
