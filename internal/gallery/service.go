// Package gallery stores shared party photos as base64 data URIs. Actual
// image hosting is out of scope; this layer only checks the data-URI prefix.
package gallery

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/sanitize"
	"github.com/ameko/fete/internal/store"
)

const (
	collection  = "gallery"
	imagePrefix = "data:image/"

	defaultCaption = "Photo partagée"
	defaultAuthor  = "Invité"
)

type Config struct {
	Store *store.Client
}

type Service struct {
	store *store.Client
}

func NewService(c Config) *Service {
	return &Service{
		store: c.Store,
	}
}

type Photo struct {
	ID         string `json:"id,omitempty"`
	Caption    string `json:"caption"`
	UploadedBy string `json:"uploaded_by"`
	ImageData  string `json:"image_data"`
	CreatedAt  string `json:"created_at"`
}

// List returns all photos, newest first.
func (s *Service) List(ctx context.Context) ([]Photo, error) {
	docs, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	photos := make([]Photo, 0, len(docs))
	for id, raw := range docs {
		var p Photo
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		p.ID = id
		photos = append(photos, p)
	}

	sort.Slice(photos, func(i, j int) bool {
		return photos[i].CreatedAt > photos[j].CreatedAt
	})

	return photos, nil
}

type UploadRequest struct {
	Image   string
	Caption string
	Name    string
}

// Upload stores a new photo and returns its id.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (string, error) {
	if req.Image == "" {
		return "", errors.New(errors.CodeInvalidArgument, errors.WithMessagef("image data required"))
	}

	if !strings.HasPrefix(req.Image, imagePrefix) {
		return "", errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid image format"))
	}

	caption := sanitize.Clean(req.Caption, 100)
	if caption == "" {
		caption = defaultCaption
	}

	name := sanitize.Clean(req.Name, 40)
	if name == "" {
		name = defaultAuthor
	}

	return s.store.Push(ctx, collection, Photo{
		Caption:    caption,
		UploadedBy: name,
		ImageData:  req.Image,
		CreatedAt:  domain.Timestamp(time.Now()),
	})
}
