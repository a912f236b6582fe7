// Package site serves the embedded assessment page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded page at / to mux. Unknown paths fall
// through to the file server and return 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
