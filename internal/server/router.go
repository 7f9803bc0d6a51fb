// Package server exposes a session to a browser viewer over HTTP.
package server

import (
	"context"
	"embed"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
	"github.com/spherical/pdf-redactor/internal/region"
	"github.com/spherical/pdf-redactor/internal/session"
)

//go:embed static
var staticFiles embed.FS

// Streamer encodes a document straight to a response body.
type Streamer interface {
	Stream(ctx context.Context, doc domain.Document, out io.Writer) error
}

// Options configures the router.
type Options struct {
	// Streamer backs GET /api/v1/document/export. Export is disabled when nil.
	Streamer Streamer
	// UploadDir receives uploaded documents. Defaults to os.TempDir().
	UploadDir      string
	MaxUploadBytes int64
	// BlurRadius and MosaicBlock are used when an effect request omits them.
	BlurRadius  float64
	MosaicBlock int
	// AllowedHosts lists host names accepted in the Host header besides IP
	// literals. Empty accepts any host.
	AllowedHosts []string
}

// NewRouter creates the viewer router with all routes configured.
func NewRouter(logger *observability.Logger, sess *session.Session, opts Options) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	if opts.BlurRadius <= 0 {
		opts.BlurRadius = region.DefaultBlurRadius
	}
	if opts.MosaicBlock <= 0 {
		opts.MosaicBlock = region.DefaultMosaicBlock
	}

	h := &Handler{
		logger:  logger.WithComponent("server"),
		session: sess,
		opts:    opts,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(AllowedHosts(opts.AllowedHosts))

	static, _ := fs.Sub(staticFiles, "static")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"pdf-redactor"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SameOrigin(h.logger))

		r.Get("/status", h.Status)
		r.Get("/document/export", h.Export)
		r.Get("/page/image", h.PageImage)

		r.With(chimiddleware.AllowContentType("multipart/form-data")).
			Post("/document/upload", h.Upload)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))

			r.Post("/document/open", h.Open)
			r.Post("/document/save", h.Save)

			r.Post("/page/next", h.Next)
			r.Post("/page/prev", h.Prev)
			r.Post("/page/goto", h.Goto)

			r.Route("/gesture", func(r chi.Router) {
				r.Post("/begin", h.GestureBegin)
				r.Post("/update", h.GestureUpdate)
				r.Post("/end", h.GestureEnd)
				r.Post("/cancel", h.GestureCancel)
			})

			r.Post("/effect", h.SetEffect)
		})
	})

	return r
}
