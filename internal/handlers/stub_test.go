package handlers

import (
	"context"
	"io"
	"sync"

	"github.com/aora/backend/internal/gateway"
	"github.com/aora/backend/internal/models"
)

type uploadCall struct {
	Name    string
	Kind    gateway.AssetKind
	Content string
}

// stubGateway satisfies every service interface the handlers depend on.
type stubGateway struct {
	mu sync.Mutex

	user    models.User
	session models.Session
	videos  []models.Video
	fileURL string
	err     error

	signedUp   []string
	signedIn   []string
	signedOut  int
	lastQuery  string
	lastUserID string
	form       models.VideoForm
	uploads    []uploadCall
	previewed  []string
}

func (s *stubGateway) CreateUser(_ context.Context, email, _, username string) (models.User, models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedUp = append(s.signedUp, email+"/"+username)
	if s.err != nil {
		return models.User{}, models.Session{}, s.err
	}
	return s.user, s.session, nil
}

func (s *stubGateway) SignIn(_ context.Context, email, _ string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedIn = append(s.signedIn, email)
	if s.err != nil {
		return models.Session{}, s.err
	}
	return s.session, nil
}

func (s *stubGateway) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedOut++
	return s.err
}

func (s *stubGateway) GetCurrentUser(context.Context) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	return s.user, nil
}

func (s *stubGateway) GetAllPosts(context.Context) ([]models.Video, error) {
	return s.videos, s.err
}

func (s *stubGateway) GetLatestPosts(context.Context) ([]models.Video, error) {
	return s.videos, s.err
}

func (s *stubGateway) SearchPosts(_ context.Context, query string) ([]models.Video, error) {
	s.lastQuery = query
	return s.videos, s.err
}

func (s *stubGateway) GetUserPosts(_ context.Context, userID string) ([]models.Video, error) {
	s.lastUserID = userID
	return s.videos, s.err
}

func (s *stubGateway) CreateVideo(_ context.Context, form models.VideoForm) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	if s.err != nil {
		return models.Video{}, s.err
	}
	for _, asset := range []*models.FileAsset{form.Thumbnail, form.Video} {
		if asset == nil {
			continue
		}
		body, err := io.ReadAll(asset.Reader)
		if err != nil {
			return models.Video{}, err
		}
		s.uploads = append(s.uploads, uploadCall{Name: asset.Name, Content: string(body)})
	}
	video := models.Video{Title: form.Title, Prompt: form.Prompt}
	video.ID = "video-1"
	return video, nil
}

func (s *stubGateway) UploadFile(_ context.Context, asset *models.FileAsset, kind gateway.AssetKind) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	body, err := io.ReadAll(asset.Reader)
	if err != nil {
		return "", false, err
	}
	s.uploads = append(s.uploads, uploadCall{Name: asset.Name, Kind: kind, Content: string(body)})
	return s.fileURL, true, nil
}

func (s *stubGateway) GetFilePreview(_ context.Context, fileID string, _ gateway.AssetKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewed = append(s.previewed, fileID)
	if s.err != nil {
		return "", s.err
	}
	return s.fileURL, nil
}

type denyLimiter struct{ keys []string }

func (d *denyLimiter) Allow(key string) bool {
	d.keys = append(d.keys, key)
	return false
}
