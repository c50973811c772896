// Package storage guarda los avatares de perfil en un bucket de objetos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// MaxAvatarBytes es el tamaño máximo aceptado para un avatar.
const MaxAvatarBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported avatar content type")
	ErrTooLarge        = errors.New("avatar too large")
)

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// AvatarStore sube un avatar y devuelve su URL pública.
type AvatarStore interface {
	Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}

// ObjectKey arma la clave del objeto para un avatar nuevo.
func ObjectKey(userID, contentType string) (string, error) {
	ext, ok := avatarExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return "avatars/" + userID + "/" + uuid.NewString() + ext, nil
}

// PublicURL une la base pública, el bucket y la clave escapando cada segmento.
func PublicURL(baseURL, bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

type gcsAvatarStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func NewGCSAvatarStore(client *storage.Client, bucket, publicBaseURL string) AvatarStore {
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &gcsAvatarStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
	}
}

func (s *gcsAvatarStore) Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	key, err := ObjectKey(userID, contentType)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = normalizeContentType(contentType)
	w.CacheControl = "public, max-age=86400"

	n, err := io.Copy(w, io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write avatar to GCS: %w", err)
	}
	if n > MaxAvatarBytes {
		// cancelar el contexto aborta la subida y no deja objeto
		cancel()
		_ = w.Close()
		return "", ErrTooLarge
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return PublicURL(s.publicBaseURL, s.bucket, key), nil
}

type disabledAvatarStore struct {
	reason string
}

// NewDisabledAvatarStore se usa cuando no hay bucket configurado.
func NewDisabledAvatarStore(reason string) AvatarStore {
	return &disabledAvatarStore{reason: reason}
}

func (s *disabledAvatarStore) Upload(_ context.Context, _ string, _ string, _ io.Reader) (string, error) {
	if s.reason == "" {
		return "", errors.New("avatar storage disabled")
	}
	return "", errors.New(s.reason)
}
