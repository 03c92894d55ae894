package handlers

import (
	"net/http"
	"strings"

	"github.com/aora/backend/internal/gateway"
)

// FileHandler uploads assets and resolves their URLs.
type FileHandler struct {
	Files FileService
}

type fileURLResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /api/v1/files with a multipart file and its type.
func (h FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	kind, ok := gateway.ParseAssetKind(strings.TrimSpace(r.FormValue("type")))
	if !ok {
		respondError(ctx, w, &gateway.Error{Op: "uploadFile", Err: gateway.ErrInvalidFileType})
		return
	}

	asset, closeFile, err := formAsset(r, "file")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer closeFile()
	if asset == nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}

	fileURL, _, err := h.Files.UploadFile(ctx, asset, kind)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, fileURLResponse{URL: fileURL})
}

// Preview handles GET /api/v1/files/preview?fileId=&type=.
func (h FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	fileID := strings.TrimSpace(r.URL.Query().Get("fileId"))
	if fileID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "fileId required"})
		return
	}

	kind, ok := gateway.ParseAssetKind(strings.TrimSpace(r.URL.Query().Get("type")))
	if !ok {
		respondError(ctx, w, &gateway.Error{Op: "getFilePreview", Err: gateway.ErrInvalidFileType})
		return
	}
	fileURL, err := h.Files.GetFilePreview(ctx, fileID, kind)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, fileURLResponse{URL: fileURL})
}
