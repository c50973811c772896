package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrait/internal/service"
	"youtrait/internal/storage"
)

type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
	sessions SessionProvider
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService, sessions SessionProvider) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles, sessions: sessions}
}

// UpdateProfile maneja PUT /me/profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		FullName *string `json:"full_name"`
		Bio      *string `json:"bio"`
		Location *string `json:"location"`
		Website  *string `json:"website"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, service.ProfileUpdate{
		FullName: req.FullName,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
	})
	if err != nil {
		writeServiceError(c, h.logger, "update profile", err)
		return
	}
	if sess, ok := h.sessions.Lookup(userID); ok {
		sess.Stores.Auth.SetProfile(&profile)
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UploadAvatar maneja POST /me/avatar con un campo multipart "avatar".
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxAvatarBytes+1<<20)
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Warn("avatar open failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid avatar file"})
		return
	}
	defer file.Close()

	profile, err := h.profiles.UploadAvatar(c.Request.Context(), userID, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(c, h.logger, "upload avatar", err)
		return
	}
	if sess, ok := h.sessions.Lookup(userID); ok {
		sess.Stores.Auth.SetProfile(&profile)
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
