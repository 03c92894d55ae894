// Package gateway exposes one method per Aora use case, each delegating to
// the account, document and storage resources of the backend service.
package gateway

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/models"
)

// latestPostsLimit is the size of the "latest" strip.
const latestPostsLimit = 7

const (
	opCreateUser     = "createUser"
	opSignIn         = "signIn"
	opGetCurrentUser = "getCurrentUser"
	opGetAllPosts    = "getAllPosts"
	opGetLatestPosts = "getLatestPosts"
	opSearchPosts    = "searchPosts"
	opGetUserPosts   = "getUserPosts"
	opSignOut        = "signOut"
	opGetFilePreview = "getFilePreview"
	opUploadFile     = "uploadFile"
	opCreateVideo    = "createVideo"
)

// Config names the backend resources the gateway reads and writes.
type Config struct {
	DatabaseID           string
	UserCollectionID     string
	VideoCollectionID    string
	BookmarkCollectionID string
	StorageID            string
}

// Services are the backend sub-resources the gateway delegates to.
type Services struct {
	Accounts  backend.Accounts
	Documents backend.Documents
	Storage   backend.Storage
	Avatars   backend.Avatars
}

// Gateway is built once per process and is safe for concurrent use.
type Gateway struct {
	cfg       Config
	accounts  backend.Accounts
	documents backend.Documents
	storage   backend.Storage
	avatars   backend.Avatars
}

// New validates the collaborators and returns a gateway bound to cfg.
func New(cfg Config, services Services) (*Gateway, error) {
	if services.Accounts == nil || services.Documents == nil || services.Storage == nil || services.Avatars == nil {
		return nil, errors.New("gateway: accounts, documents, storage and avatars are required")
	}
	if cfg.DatabaseID == "" || cfg.UserCollectionID == "" || cfg.VideoCollectionID == "" || cfg.StorageID == "" {
		return nil, errors.New("gateway: database, collection and storage ids are required")
	}
	return &Gateway{
		cfg:       cfg,
		accounts:  services.Accounts,
		documents: services.Documents,
		storage:   services.Storage,
		avatars:   services.Avatars,
	}, nil
}

type userData struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
}

type videoData struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Video     string `json:"video,omitempty"`
	Prompt    string `json:"prompt"`
	Users     string `json:"users"`
}

// CreateUser registers an account, signs it in and creates the linked user
// document. If the document cannot be created the new session is signed out
// again before the failure is returned.
func (g *Gateway) CreateUser(ctx context.Context, email, password, username string) (models.User, models.Session, error) {
	ctx, span := logging.StartSpan(ctx, "gateway."+opCreateUser)
	defer span.End()

	avatarURL, err := g.avatars.Initials(username)
	if err != nil {
		return models.User{}, models.Session{}, fail(ctx, opCreateUser, err)
	}

	account, err := g.accounts.Create(ctx, backend.UniqueID(), email, password, username)
	if err != nil {
		return models.User{}, models.Session{}, fail(ctx, opCreateUser, err)
	}
	if account.ID == "" {
		return models.User{}, models.Session{}, fail(ctx, opCreateUser, ErrAccountNotCreated)
	}

	session, err := g.SignIn(ctx, email, password)
	if err != nil {
		return models.User{}, models.Session{}, fail(ctx, opCreateUser, err)
	}

	authed := backend.WithSession(ctx, session.Secret)
	raw, err := g.documents.CreateDocument(authed, g.cfg.DatabaseID, g.cfg.UserCollectionID, backend.UniqueID(), userData{
		AccountID: account.ID,
		Email:     email,
		Username:  username,
		Avatar:    avatarURL,
	})
	if err != nil {
		g.revokeSession(authed, session)
		return models.User{}, models.Session{}, fail(ctx, opCreateUser, err)
	}

	user, err := backend.DecodeDocument[models.User](raw)
	if err != nil {
		return models.User{}, models.Session{}, fail(ctx, opCreateUser, err)
	}
	return user, session, nil
}

func (g *Gateway) revokeSession(ctx context.Context, session models.Session) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger := logging.FromContext(ctx)
	if err := g.accounts.DeleteSession(ctx, backend.CurrentSession); err != nil {
		logger.Error("revoke session after failed registration", "sessionId", session.ID, "error", err)
		return
	}
	logger.Warn("revoked session after failed registration", "sessionId", session.ID)
}

// SignIn opens an email/password session.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	ctx, span := logging.StartSpan(ctx, "gateway."+opSignIn)
	defer span.End()

	session, err := g.accounts.CreateEmailSession(ctx, email, password)
	if err != nil {
		return models.Session{}, fail(ctx, opSignIn, err)
	}
	return session, nil
}

// GetCurrentUser returns the user document linked to the signed-in account.
// Only the first match is returned.
func (g *Gateway) GetCurrentUser(ctx context.Context) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "gateway."+opGetCurrentUser)
	defer span.End()

	account, err := g.accounts.Get(ctx)
	if err != nil {
		return models.User{}, fail(ctx, opGetCurrentUser, err)
	}
	if account.ID == "" {
		return models.User{}, fail(ctx, opGetCurrentUser, backend.ErrUnauthorized)
	}

	list, err := g.documents.ListDocuments(ctx, g.cfg.DatabaseID, g.cfg.UserCollectionID, backend.Equal("accountId", account.ID))
	if err != nil {
		return models.User{}, fail(ctx, opGetCurrentUser, err)
	}
	if len(list.Documents) == 0 {
		return models.User{}, fail(ctx, opGetCurrentUser, ErrUserNotFound)
	}

	user, err := backend.DecodeDocument[models.User](list.Documents[0])
	if err != nil {
		return models.User{}, fail(ctx, opGetCurrentUser, err)
	}
	return user, nil
}

// GetAllPosts returns every video, newest first.
func (g *Gateway) GetAllPosts(ctx context.Context) ([]models.Video, error) {
	return g.listVideos(ctx, opGetAllPosts, backend.OrderDesc(backend.AttrCreatedAt))
}

// GetLatestPosts returns the newest videos.
func (g *Gateway) GetLatestPosts(ctx context.Context) ([]models.Video, error) {
	return g.listVideos(ctx, opGetLatestPosts, backend.OrderDesc(backend.AttrCreatedAt), backend.Limit(latestPostsLimit))
}

// SearchPosts runs a full-text title search. The query is passed through as is.
func (g *Gateway) SearchPosts(ctx context.Context, query string) ([]models.Video, error) {
	return g.listVideos(ctx, opSearchPosts, backend.Search("title", query))
}

// GetUserPosts returns the videos owned by userID, newest first.
func (g *Gateway) GetUserPosts(ctx context.Context, userID string) ([]models.Video, error) {
	return g.listVideos(ctx, opGetUserPosts, backend.Equal("users", userID), backend.OrderDesc(backend.AttrCreatedAt))
}

func (g *Gateway) listVideos(ctx context.Context, op string, queries ...backend.Query) ([]models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "gateway."+op)
	defer span.End()

	list, err := g.documents.ListDocuments(ctx, g.cfg.DatabaseID, g.cfg.VideoCollectionID, queries...)
	if err != nil {
		return nil, fail(ctx, op, err)
	}
	videos, err := backend.DecodeDocuments[models.Video](list)
	if err != nil {
		return nil, fail(ctx, op, err)
	}
	return videos, nil
}

// SignOut invalidates the current session.
func (g *Gateway) SignOut(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "gateway."+opSignOut)
	defer span.End()

	if err := g.accounts.DeleteSession(ctx, backend.CurrentSession); err != nil {
		return fail(ctx, opSignOut, err)
	}
	return nil
}

// GetFilePreview resolves the URL for a stored file. Unknown kinds fail with
// ErrInvalidFileType before the storage resource is touched.
func (g *Gateway) GetFilePreview(ctx context.Context, fileID string, kind AssetKind) (string, error) {
	resolve, ok := resolvers[kind]
	if !ok {
		return "", fail(ctx, opGetFilePreview, ErrInvalidFileType)
	}

	fileURL, err := resolve(g.storage, g.cfg.StorageID, fileID)
	if err != nil {
		return "", fail(ctx, opGetFilePreview, err)
	}
	if fileURL == "" {
		return "", fail(ctx, opGetFilePreview, ErrEmptyURL)
	}
	return fileURL, nil
}

// UploadFile stores asset under a fresh id and returns its URL. A nil asset
// is not an error: ok is false and nothing is uploaded.
func (g *Gateway) UploadFile(ctx context.Context, asset *models.FileAsset, kind AssetKind) (fileURL string, ok bool, err error) {
	if asset == nil {
		return "", false, nil
	}

	ctx, span := logging.StartSpan(ctx, "gateway."+opUploadFile)
	defer span.End()

	if _, known := resolvers[kind]; !known {
		return "", false, fail(ctx, opUploadFile, ErrInvalidFileType)
	}

	stored, err := g.storage.CreateFile(ctx, g.cfg.StorageID, backend.UniqueID(), *asset)
	if err != nil {
		return "", false, fail(ctx, opUploadFile, err)
	}

	fileURL, err = g.GetFilePreview(ctx, stored.ID, kind)
	if err != nil {
		return "", false, fail(ctx, opUploadFile, err)
	}
	return fileURL, true, nil
}

// CreateVideo uploads the thumbnail and the video concurrently and then
// creates the post referencing both. If either upload fails no post is
// created; an upload that already finished is left in storage.
func (g *Gateway) CreateVideo(ctx context.Context, form models.VideoForm) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "gateway."+opCreateVideo)
	defer span.End()

	var (
		group        errgroup.Group
		thumbnailURL string
		videoURL     string
	)
	group.Go(func() error {
		var err error
		thumbnailURL, _, err = g.UploadFile(ctx, form.Thumbnail, AssetImage)
		return err
	})
	group.Go(func() error {
		var err error
		videoURL, _, err = g.UploadFile(ctx, form.Video, AssetVideo)
		return err
	})
	if err := group.Wait(); err != nil {
		return models.Video{}, fail(ctx, opCreateVideo, err)
	}

	raw, err := g.documents.CreateDocument(ctx, g.cfg.DatabaseID, g.cfg.VideoCollectionID, backend.UniqueID(), videoData{
		Title:     form.Title,
		Thumbnail: thumbnailURL,
		Video:     videoURL,
		Prompt:    form.Prompt,
		Users:     form.UserID,
	})
	if err != nil {
		return models.Video{}, fail(ctx, opCreateVideo, err)
	}

	video, err := backend.DecodeDocument[models.Video](raw)
	if err != nil {
		return models.Video{}, fail(ctx, opCreateVideo, err)
	}
	return video, nil
}
