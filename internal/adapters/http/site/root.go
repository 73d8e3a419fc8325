// Package site serves the embedded game page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded game page to mux at /.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler())
}

// RootHandler serves the page and its assets.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// ServeHTTP serves GET and HEAD requests from the embedded files.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	// The page polls for state; never serve a stale shell.
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
