// Package images serves pin image uploads. Pins only store the returned
// URL; the bytes live in object storage.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ErrNotFound is returned by a FileStore when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// FileStore defines the interface for image storage.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Handler holds image HTTP handlers.
type Handler struct {
	files    FileStore
	maxBytes int64
	baseURL  string
	log      *slog.Logger
	guard    func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithUploadGuard runs mw in front of Upload. Downloads stay public.
func WithUploadGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.guard = mw }
}

// NewHandler returns image handlers. Uploaded images are addressed as
// baseURL + "/" + key.
func NewHandler(files FileStore, maxBytes int64, baseURL string, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{files: files, maxBytes: maxBytes, baseURL: strings.TrimRight(baseURL, "/"), log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the handlers on a chi router.
func (h *Handler) Routes(r chi.Router) {
	upload := r
	if h.guard != nil {
		upload = r.With(h.guard)
	}
	upload.Post("/", h.Upload)
	r.Get("/{key}", h.Download)
}

// Upload stores the multipart "file" field and returns its URL.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file"})
		return
	}
	sniff = sniff[:n]
	contentType := http.DetectContentType(sniff)
	ext, ok := extensions[contentType]
	if !ok {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "unsupported image type"})
		return
	}

	key := uuid.New().String() + ext
	body := io.MultiReader(bytes.NewReader(sniff), file)
	if err := h.files.Put(r.Context(), key, body, header.Size, contentType); err != nil {
		h.log.ErrorContext(r.Context(), "image upload failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"key":      key,
		"imageUrl": h.baseURL + "/" + key,
	})
}

// Download streams a stored image.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !validKey(key) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
		return
	}

	obj, info, err := h.files.Open(r.Context(), key)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "image download failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "download failed"})
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	io.Copy(w, obj)
}

// validKey accepts only keys produced by Upload: a UUID plus a known extension.
func validKey(key string) bool {
	dot := strings.LastIndexByte(key, '.')
	if dot < 0 {
		return false
	}
	if _, err := uuid.Parse(key[:dot]); err != nil {
		return false
	}
	for _, ext := range extensions {
		if key[dot:] == ext {
			return true
		}
	}
	return false
}
