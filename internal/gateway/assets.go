package gateway

import "github.com/aora/backend/internal/backend"

// AssetKind selects how a stored file is turned into a URL.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// imagePreview is the crop hint used for every image URL.
var imagePreview = backend.PreviewOptions{
	Width:   2000,
	Height:  2000,
	Gravity: "top",
	Quality: 100,
}

type urlResolver func(storage backend.Storage, bucketID, fileID string) (string, error)

var resolvers = map[AssetKind]urlResolver{
	AssetVideo: func(storage backend.Storage, bucketID, fileID string) (string, error) {
		return storage.FileView(bucketID, fileID)
	},
	AssetImage: func(storage backend.Storage, bucketID, fileID string) (string, error) {
		return storage.FilePreview(bucketID, fileID, imagePreview)
	},
}

// ParseAssetKind maps a caller-supplied type name onto a known kind.
func ParseAssetKind(s string) (AssetKind, bool) {
	kind := AssetKind(s)
	_, ok := resolvers[kind]
	return kind, ok
}
