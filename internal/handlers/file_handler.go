package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/devlogbr/backend/internal/models"
	"github.com/devlogbr/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartMemoryLimit is the in-memory budget for parsing upload forms;
// larger bodies spill to temp files.
const multipartMemoryLimit = 32 << 20 // 32MB

// FileService defines the interface for file operations
type FileService interface {
	// Method Upload classifies and stores a generic upload.
	//
	// "title" parameter drives both the slug and the wallpaper detection.
	// "clientName" parameter is the filename sent by the client, used as an
	// extension fallback when sniffing is inconclusive.
	//
	// If some error will occur during the upload, the error will be returned together with "nil" value.
	Upload(ctx context.Context, title, clientName string, data []byte) (*models.File, error)
	// Method AttachToTrick stores an upload as a disk-backed attachment of an existing trick.
	//
	// If some error will occur during the upload, the error will be returned together with "nil" value.
	AttachToTrick(ctx context.Context, trickSlug, title, clientName string, data []byte) (*models.File, error)
	// Method Retrieve resolves a slug to its stored bytes or redirect link.
	//
	// If some error will occur during retrieval, the error will be returned together with "nil" value.
	Retrieve(ctx context.Context, slug string) (*services.RetrievedFile, error)
	// Method Wallpapers lists wallpaper records with their vote counts.
	//
	// If some error will occur during listing, the error will be returned together with "nil" value.
	Wallpapers(ctx context.Context) ([]models.Wallpaper, error)
}

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	BaseHandler
	fileService FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService FileService, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		BaseHandler: BaseHandler{Logger: logger},
		fileService: fileService,
	}
}

// Upload handles POST /api/files
// @Summary Upload a file
// @Description Store an uploaded file. Titles starting with "wallpaper" plus image content publish a resized wallpaper; other images are resized inline; everything else is stored as-is.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "File title"
// @Param newFile formData file true "File to upload"
// @Success 201 {object} map[string]any "Created file record"
// @Failure 400 {object} map[string]string "Missing field or disallowed type"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 409 {object} map[string]string "Slug already taken"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/files [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	title, clientName, data, ok := h.readUploadForm(w, r)
	if !ok {
		return
	}

	file, err := h.fileService.Upload(r.Context(), title, clientName, data)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "File saved.",
		"file":    file.Info(),
	})
}

// AttachToTrick handles POST /api/tricks/{slug}/bin
// @Summary Attach a file to a trick
// @Description Store an uploaded file on disk as an attachment of an existing trick
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param slug path string true "Trick slug"
// @Param title formData string false "File title"
// @Param newFile formData file true "File to upload"
// @Success 201 {object} map[string]any "Created file record"
// @Failure 400 {object} map[string]string "Missing file or forbidden extension"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "Trick not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/tricks/{slug}/bin [post]
func (h *FileHandler) AttachToTrick(w http.ResponseWriter, r *http.Request) {
	trickSlug := chi.URLParam(r, "slug")

	title, clientName, data, ok := h.readUploadForm(w, r)
	if !ok {
		return
	}

	file, err := h.fileService.AttachToTrick(r.Context(), trickSlug, title, clientName, data)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "File saved.",
		"file":    file.Info(),
	})
}

// Retrieve handles GET /f/{slug}
// @Summary Download a file
// @Description Stream the stored file, or redirect when the record is an external link
// @Tags files
// @Produce application/octet-stream
// @Param slug path string true "File slug"
// @Success 200 "File content"
// @Success 302 "Redirect to public link"
// @Failure 403 {object} map[string]string "Stored path escapes the public root"
// @Failure 404 {object} map[string]string "File not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /f/{slug} [get]
func (h *FileHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	got, err := h.fileService.Retrieve(r.Context(), slug)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	if got.RedirectURL != "" {
		http.Redirect(w, r, got.RedirectURL, http.StatusFound)
		return
	}

	defer got.Reader.Close()
	w.Header().Set("Content-Type", got.Mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", got.DownloadName))
	if _, err := io.Copy(w, got.Reader); err != nil {
		h.Logger.Error("failed to stream file", zap.String("slug", slug), zap.Error(err))
	}
}

// Wallpapers handles GET /api/wallpapers
// @Summary List wallpapers
// @Description List wallpaper records with their public links and vote counts
// @Tags files
// @Produce json
// @Success 200 {array} models.Wallpaper
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/wallpapers [get]
func (h *FileHandler) Wallpapers(w http.ResponseWriter, r *http.Request) {
	wallpapers, err := h.fileService.Wallpapers(r.Context())
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}
	if wallpapers == nil {
		wallpapers = []models.Wallpaper{}
	}
	h.RespondJSON(w, http.StatusOK, wallpapers)
}

// readUploadForm parses the multipart form and pulls out the title and the
// "newFile" part. On failure it writes the error response and returns ok=false.
func (h *FileHandler) readUploadForm(w http.ResponseWriter, r *http.Request) (title, clientName string, data []byte, ok bool) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return "", "", nil, false
	}

	title = r.FormValue("title")

	part, header, err := r.FormFile("newFile")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "Both file and title are required.")
		return "", "", nil, false
	}
	defer part.Close()

	data, err = io.ReadAll(part)
	if err != nil {
		h.Logger.Error("failed to read uploaded file", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return "", "", nil, false
	}

	return title, header.Filename, data, true
}
