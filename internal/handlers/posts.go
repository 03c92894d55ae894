package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/models"
)

// maxMemoryBytes is how much of a multipart body is buffered before spilling to disk.
const maxMemoryBytes = 32 << 20

// PostHandler serves the video feed endpoints.
type PostHandler struct {
	Posts PostService
}

// List handles GET /api/v1/posts.
func (h PostHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	h.respondPosts(w, r, h.Posts.GetAllPosts)
}

// Latest handles GET /api/v1/posts/latest.
func (h PostHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	h.respondPosts(w, r, h.Posts.GetLatestPosts)
}

// Search handles GET /api/v1/posts/search?query=. An empty query is passed
// through to the backend unchanged.
func (h PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	query := r.URL.Query().Get("query")
	h.respondPosts(w, r, func(ctx context.Context) ([]models.Video, error) {
		return h.Posts.SearchPosts(ctx, query)
	})
}

// ByUser handles GET /api/v1/posts/by-user?user=.
func (h PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user"))
	if userID == "" {
		respondJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "user required"})
		return
	}
	h.respondPosts(w, r, func(ctx context.Context) ([]models.Video, error) {
		return h.Posts.GetUserPosts(ctx, userID)
	})
}

func (h PostHandler) respondPosts(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]models.Video, error)) {
	ctx := r.Context()
	videos, err := list(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

type createVideoRequest struct {
	Title  string `json:"title" validate:"required"`
	Prompt string `json:"prompt" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// CreateVideo handles POST /api/v1/videos with a multipart body carrying
// title, prompt, userId and the optional thumbnail and video files.
func (h PostHandler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		logger.Warn("invalid video form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := createVideoRequest{
		Title:  strings.TrimSpace(r.FormValue("title")),
		Prompt: strings.TrimSpace(r.FormValue("prompt")),
		UserID: strings.TrimSpace(r.FormValue("userId")),
	}
	if err := validate.Struct(req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	thumbnail, closeThumb, err := formAsset(r, "thumbnail")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer closeThumb()
	video, closeVideo, err := formAsset(r, "video")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer closeVideo()

	created, err := h.Posts.CreateVideo(ctx, models.VideoForm{
		Title:     req.Title,
		Prompt:    req.Prompt,
		UserID:    req.UserID,
		Thumbnail: thumbnail,
		Video:     video,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logger.Info("video created", "videoId", created.ID, "userId", req.UserID)
	respondJSON(ctx, w, http.StatusCreated, created)
}

// formAsset opens the named multipart file. A missing field yields a nil asset.
func formAsset(r *http.Request, field string) (*models.FileAsset, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, errors.New("invalid " + field + " upload")
	}
	return headerAsset(file, header), func() { _ = file.Close() }, nil
}

func headerAsset(file multipart.File, header *multipart.FileHeader) *models.FileAsset {
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &models.FileAsset{
		Name:     header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		Reader:   file,
	}
}
