package bots

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the webhook handler at path for every method.
func RegisterRoutes(r chi.Router, path string, h http.Handler) {
	r.Handle(path, h)
}
