package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"youtrait/internal/domain"
	"youtrait/internal/filter"
	"youtrait/internal/metrics"
	"youtrait/internal/repository"
	"youtrait/internal/storage"
)

const (
	maxBioLen      = 500
	maxFullNameLen = 80
	maxLocationLen = 80
)

// ProfileService edita el perfil público. La bio pasa por el filtro de
// contenido y se guarda censurada.
type ProfileService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	avatars  storage.AvatarStore
	filter   *filter.Filter
}

func NewProfileService(logger *zap.Logger, profiles repository.ProfileRepository, avatars storage.AvatarStore, contentFilter *filter.Filter) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if avatars == nil {
		avatars = storage.NewDisabledAvatarStore("avatar storage not configured")
	}
	if contentFilter == nil {
		contentFilter = filter.Default()
	}
	return &ProfileService{
		logger:   logger,
		profiles: profiles,
		avatars:  avatars,
		filter:   contentFilter,
	}
}

// ProfileUpdate solo cambia los campos no nil.
type ProfileUpdate struct {
	FullName *string
	Bio      *string
	Location *string
	Website  *string
}

func (s *ProfileService) Get(ctx context.Context, id string) (domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, id string, update ProfileUpdate) (domain.Profile, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}

	if update.FullName != nil {
		v := strings.TrimSpace(*update.FullName)
		if utf8.RuneCountInString(v) > maxFullNameLen {
			return domain.Profile{}, fmt.Errorf("%w: full name too long", ErrValidation)
		}
		current.FullName = v
	}
	if update.Location != nil {
		v := strings.TrimSpace(*update.Location)
		if utf8.RuneCountInString(v) > maxLocationLen {
			return domain.Profile{}, fmt.Errorf("%w: location too long", ErrValidation)
		}
		current.Location = v
	}
	if update.Website != nil {
		v := strings.TrimSpace(*update.Website)
		if v != "" && !isHTTPURL(v) {
			return domain.Profile{}, fmt.Errorf("%w: website must be an http(s) URL", ErrValidation)
		}
		current.Website = v
	}
	if update.Bio != nil {
		v := strings.TrimSpace(*update.Bio)
		if utf8.RuneCountInString(v) > maxBioLen {
			return domain.Profile{}, fmt.Errorf("%w: bio longer than %d characters", ErrValidation, maxBioLen)
		}
		result, filtered := s.filter.Apply(v)
		if result.IsClean {
			metrics.FilterChecks.WithLabelValues("bio", "clean").Inc()
		} else {
			metrics.FilterChecks.WithLabelValues("bio", "flagged").Inc()
			s.logger.Info("bio redacted",
				zap.String("user_id", id),
				zap.Strings("flagged_words", result.FlaggedWords),
			)
		}
		current.Bio = filtered
	}

	updated, err := s.profiles.Update(ctx, current)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("%w: update profile: %v", ErrBackend, err)
	}
	return updated, nil
}

// UploadAvatar sube la imagen y apunta el perfil a la nueva URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, id, contentType string, r io.Reader) (domain.Profile, error) {
	avatarURL, err := s.avatars.Upload(ctx, id, contentType, r)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
			return domain.Profile{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		s.logger.Error("avatar upload failed", zap.String("user_id", id), zap.Error(err))
		return domain.Profile{}, fmt.Errorf("%w: upload avatar: %v", ErrBackend, err)
	}
	if err := s.profiles.UpdateAvatar(ctx, id, avatarURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("%w: update avatar: %v", ErrBackend, err)
	}
	return s.Get(ctx, id)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
