package handlers

import (
	"context"

	"github.com/aora/backend/internal/gateway"
	"github.com/aora/backend/internal/models"
)

// AccountService covers registration and session operations.
type AccountService interface {
	CreateUser(ctx context.Context, email, password, username string) (models.User, models.Session, error)
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (models.User, error)
}

// PostService lists and creates video posts.
type PostService interface {
	GetAllPosts(ctx context.Context) ([]models.Video, error)
	GetLatestPosts(ctx context.Context) ([]models.Video, error)
	SearchPosts(ctx context.Context, query string) ([]models.Video, error)
	GetUserPosts(ctx context.Context, userID string) ([]models.Video, error)
	CreateVideo(ctx context.Context, form models.VideoForm) (models.Video, error)
}

// FileService uploads assets and resolves their URLs.
type FileService interface {
	UploadFile(ctx context.Context, asset *models.FileAsset, kind gateway.AssetKind) (string, bool, error)
	GetFilePreview(ctx context.Context, fileID string, kind gateway.AssetKind) (string, error)
}
