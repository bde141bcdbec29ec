// Package site serves the browser client and other static assets.
package site

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// ErrNotDirectory is returned by Dir when the configured path is not a directory.
var ErrNotDirectory = errors.New("static path is not a directory")

//go:embed static
var staticFS embed.FS

// Embedded returns the client bundled into the binary.
func Embedded() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Should never happen: the directory is part of the embed pattern.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// Dir returns the files under dir, or an error if dir is not a directory.
func Dir(dir string) (http.FileSystem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}
	return http.Dir(dir), nil
}

// FS returns the configured directory when it exists and the embedded
// client otherwise. The bool reports whether the directory was used.
func FS(dir string) (http.FileSystem, bool) {
	if dir != "" {
		if files, err := Dir(dir); err == nil {
			return files, true
		}
	}
	return Embedded(), false
}

// Handler serves GET and HEAD requests for files present in files and hands
// everything else to fallback. A directory is served only if it holds an
// index.html.
func Handler(files http.FileSystem, fallback http.Handler) http.Handler {
	server := http.FileServer(files)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			fallback.ServeHTTP(w, r)
			return
		}
		if !exists(files, r.URL.Path) {
			fallback.ServeHTTP(w, r)
			return
		}
		server.ServeHTTP(w, r)
	})
}

func exists(files http.FileSystem, name string) bool {
	name = path.Clean("/" + name)
	f, err := files.Open(name)
	if err != nil {
		return false
	}
	info, err := f.Stat()
	_ = f.Close()
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	index, err := files.Open(strings.TrimSuffix(name, "/") + "/index.html")
	if err != nil {
		return false
	}
	_ = index.Close()
	return true
}
