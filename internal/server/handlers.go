package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
	"github.com/spherical/pdf-redactor/internal/pdf"
	"github.com/spherical/pdf-redactor/internal/region"
	"github.com/spherical/pdf-redactor/internal/session"
)

// Handler serves the session API.
type Handler struct {
	logger  *observability.Logger
	session *session.Session
	opts    Options
}

// PathRequestDTO names a file on the server's filesystem.
type PathRequestDTO struct {
	Path string `json:"path"`
}

// PointDTO is a pointer position in page pixels.
type PointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GotoRequestDTO selects a page by zero-based index.
type GotoRequestDTO struct {
	Index int `json:"index"`
}

// EffectRequestDTO selects the effect for later edits.
type EffectRequestDTO struct {
	Name      string  `json:"name"`
	Radius    float64 `json:"radius,omitempty"`
	BlockSize int     `json:"blockSize,omitempty"`
}

// StatusResponseDTO wraps the session status with the outcome of the request.
type StatusResponseDTO struct {
	session.Status
	Loaded  bool `json:"loaded,omitempty"`
	Ignored bool `json:"ignored,omitempty"`
	Edited  bool `json:"edited,omitempty"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, StatusResponseDTO{})
}

// Open handles POST /api/v1/document/open.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req PathRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, domain.ValidationError("path is required", nil))
		return
	}

	loaded, err := h.session.Open(r.Context(), req.Path)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStatus(w, StatusResponseDTO{Loaded: loaded, Ignored: !loaded})
}

// Upload handles POST /api/v1/document/upload. Every multipart "file" part
// is stored under the upload directory and the first PDF among them is
// opened, matching a multi-file drop.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, domain.ValidationError("invalid multipart upload", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		h.writeError(w, domain.ValidationError("multipart field \"file\" is required", nil))
		return
	}

	names := make(map[string]string, len(headers))
	paths := make([]string, 0, len(headers))
	// The pages live in memory once loaded.
	defer func() {
		for _, p := range paths {
			os.Remove(p)
		}
	}()

	for _, header := range headers {
		if !pdf.IsDocumentPath(header.Filename) {
			h.logger.Debug().Str("filename", header.Filename).Msg("Ignoring non-PDF upload")
			continue
		}
		dst := filepath.Join(h.opts.UploadDir, "upload-"+uuid.NewString()+pdf.DocumentExtension)
		if err := saveUpload(header, dst); err != nil {
			h.writeError(w, domain.LoadError("Failed to store upload", err))
			return
		}
		names[dst] = header.Filename
		paths = append(paths, dst)
	}

	loaded, err := h.session.OpenFirst(r.Context(), paths)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !loaded {
		h.writeStatus(w, StatusResponseDTO{Ignored: true})
		return
	}

	h.logger.Info().
		Str("filename", names[paths[0]]).
		Int("files", len(headers)).
		Msg("Upload loaded")
	h.writeStatus(w, StatusResponseDTO{Loaded: true})
}

func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// Save handles POST /api/v1/document/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req PathRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, domain.ValidationError("path is required", nil))
		return
	}

	if err := h.session.Save(r.Context(), req.Path); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStatus(w, StatusResponseDTO{})
}

// Export handles GET /api/v1/document/export and streams the edited PDF.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.opts.Streamer == nil {
		h.writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "export is not configured"})
		return
	}

	doc, err := h.session.Export()
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Buffer so an encoding failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.opts.Streamer.Stream(r.Context(), doc, &buf); err != nil {
		h.writeError(w, err)
		return
	}

	name := "redacted.pdf"
	if doc.Source != "" {
		name = strings.TrimSuffix(filepath.Base(doc.Source), filepath.Ext(doc.Source)) + "-redacted.pdf"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}

// PageImage handles GET /api/v1/page/image.
func (h *Handler) PageImage(w http.ResponseWriter, r *http.Request) {
	page, err := h.session.CurrentPage()
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Image); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// Next handles POST /api/v1/page/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.session.Next()
	h.writeStatus(w, StatusResponseDTO{})
}

// Prev handles POST /api/v1/page/prev.
func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	h.session.Prev()
	h.writeStatus(w, StatusResponseDTO{})
}

// Goto handles POST /api/v1/page/goto.
func (h *Handler) Goto(w http.ResponseWriter, r *http.Request) {
	var req GotoRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	h.session.SetPage(req.Index)
	h.writeStatus(w, StatusResponseDTO{})
}

// GestureBegin handles POST /api/v1/gesture/begin.
func (h *Handler) GestureBegin(w http.ResponseWriter, r *http.Request) {
	var p PointDTO
	if !h.decode(w, r, &p) {
		return
	}
	h.session.Begin(domain.Point{X: p.X, Y: p.Y})
	h.writeStatus(w, StatusResponseDTO{})
}

// GestureUpdate handles POST /api/v1/gesture/update.
func (h *Handler) GestureUpdate(w http.ResponseWriter, r *http.Request) {
	var p PointDTO
	if !h.decode(w, r, &p) {
		return
	}
	h.session.Update(domain.Point{X: p.X, Y: p.Y})
	h.writeStatus(w, StatusResponseDTO{})
}

// GestureEnd handles POST /api/v1/gesture/end.
func (h *Handler) GestureEnd(w http.ResponseWriter, r *http.Request) {
	var p PointDTO
	if !h.decode(w, r, &p) {
		return
	}
	edited, err := h.session.End(domain.Point{X: p.X, Y: p.Y})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeStatus(w, StatusResponseDTO{Edited: edited})
}

// GestureCancel handles POST /api/v1/gesture/cancel.
func (h *Handler) GestureCancel(w http.ResponseWriter, r *http.Request) {
	h.session.Cancel()
	h.writeStatus(w, StatusResponseDTO{})
}

// SetEffect handles POST /api/v1/effect.
func (h *Handler) SetEffect(w http.ResponseWriter, r *http.Request) {
	var req EffectRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	radius, block := req.Radius, req.BlockSize
	if radius <= 0 {
		radius = h.opts.BlurRadius
	}
	if block <= 0 {
		block = h.opts.MosaicBlock
	}

	effect, err := region.ParseEffect(req.Name, radius, block)
	if err != nil {
		h.writeError(w, domain.ValidationError("invalid effect", err))
		return
	}
	h.session.SetEffect(effect)
	h.writeStatus(w, StatusResponseDTO{})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, domain.ValidationError("invalid request body", err))
		return false
	}
	return true
}

func (h *Handler) writeStatus(w http.ResponseWriter, resp StatusResponseDTO) {
	resp.Status = h.session.Status()
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	errType := domain.TypeOf(err)

	status := http.StatusInternalServerError
	switch errType {
	case domain.ErrorTypeNoDocument:
		status = http.StatusNotFound
	case domain.ErrorTypeValidation, domain.ErrorTypeEmptyDocument, domain.ErrorTypeLoad:
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}

	resp := map[string]string{"error": err.Error()}
	if errType != "" {
		resp["type"] = string(errType)
	}
	h.writeJSON(w, status, resp)
}
