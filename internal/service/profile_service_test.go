package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"youtrait/internal/domain"
	"youtrait/internal/filter"
	"youtrait/internal/storage"
)

type mockAvatarStore struct {
	lastUser        string
	lastContentType string
	body            string
	url             string
	err             error
}

func (m *mockAvatarStore) Upload(_ context.Context, userID, contentType string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.lastUser = userID
	m.lastContentType = contentType
	m.body = string(b)
	return m.url, nil
}

func strPtr(s string) *string { return &s }

func TestProfileServiceUpdate_RedactsBio(t *testing.T) {
	profiles := newMockProfileRepo(domain.Profile{ID: "ana", Username: "ana", Location: "Lima"})
	svc := NewProfileService(zap.NewNop(), profiles, nil, filter.Default())

	updated, err := svc.Update(context.Background(), "ana", ProfileUpdate{
		Bio:     strPtr("I love SPAM and art"),
		Website: strPtr("https://ana.dev"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Bio != "I love **** and art" {
		t.Fatalf("expected redacted bio, got %q", updated.Bio)
	}
	if updated.Location != "Lima" {
		t.Fatalf("expected untouched location, got %q", updated.Location)
	}
	if updated.Website != "https://ana.dev" {
		t.Fatalf("unexpected website %q", updated.Website)
	}
}

func TestProfileServiceUpdate_Validation(t *testing.T) {
	profiles := newMockProfileRepo(domain.Profile{ID: "ana", Username: "ana"})
	svc := NewProfileService(zap.NewNop(), profiles, nil, nil)

	if _, err := svc.Update(context.Background(), "ana", ProfileUpdate{Website: strPtr("ftp://x")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for website, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "ana", ProfileUpdate{Bio: strPtr(strings.Repeat("a", maxBioLen+1))}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for long bio, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "ghost", ProfileUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileServiceUploadAvatar(t *testing.T) {
	profiles := newMockProfileRepo(domain.Profile{ID: "ana", Username: "ana"})
	avatars := &mockAvatarStore{url: "https://cdn.test/avatars/ana/1.png"}
	svc := NewProfileService(zap.NewNop(), profiles, avatars, nil)

	p, err := svc.UploadAvatar(context.Background(), "ana", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("expected upload success, got %v", err)
	}
	if p.AvatarURL != avatars.url {
		t.Fatalf("expected avatar url stored, got %q", p.AvatarURL)
	}
	if avatars.lastUser != "ana" || avatars.body != "png-bytes" {
		t.Fatalf("unexpected upload call %+v", avatars)
	}
}

func TestProfileServiceUploadAvatar_Errors(t *testing.T) {
	profiles := newMockProfileRepo(domain.Profile{ID: "ana", Username: "ana"})

	svc := NewProfileService(zap.NewNop(), profiles, &mockAvatarStore{err: storage.ErrUnsupportedType}, nil)
	if _, err := svc.UploadAvatar(context.Background(), "ana", "text/plain", strings.NewReader("x")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	svc = NewProfileService(zap.NewNop(), profiles, nil, nil)
	if _, err := svc.UploadAvatar(context.Background(), "ana", "image/png", strings.NewReader("x")); !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend with storage disabled, got %v", err)
	}
}
