package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	internalS3 "leiloes/adapters/s3"
	"leiloes/models"
)

const maxImageSize = 5 << 20

// Upload a lot photo. Size-capped, MIME allow-listed, rate limited per
// uploader per hour.
// (POST /admin/images)
func (impl *ServerImpl) PostImage(c *gin.Context) {
	const op = "PostImage"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}

	if impl.config.Uploads.RateLimitPerHour > 0 {
		var uploadedCount int64
		if result := impl.db.Model(&models.Image{}).
			Where("uploader_id = ? AND created_at > ?", user.ID, time.Now().Add(-1*time.Hour)).
			Count(&uploadedCount); result.Error != nil {
			respondError(c, op, fmt.Errorf("[%s] Fail to count uploaded images, err=%w", op, result.Error))
			return
		}
		if uploadedCount >= impl.config.Uploads.RateLimitPerHour {
			respondError(c, op, ErrRateLimited)
			return
		}
	}

	body := internalS3.NewMaxSizeReader(c.Request.Body, maxImageSize)
	file, err := io.ReadAll(body)
	if errors.As(err, &internalS3.ErrReachLimitType) {
		respondError(c, op, validationError("image exceeds %s", internalS3.FormatBytes(maxImageSize)))
		return
	}
	if err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to read image, err=%w", op, err))
		return
	}
	mimeType := http.DetectContentType(file)
	secure, ext := internalS3.CheckSecureImageAndGetExtension(mimeType)
	if !secure {
		respondError(c, op, validationError("invalid image type: %s", mimeType))
		return
	}

	path := fmt.Sprintf("images/%s.%s", uuid.New(), ext)
	url, err := impl.storage.Upload(c.Request.Context(), path, mimeType, file)
	if err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to upload image, err=%w", op, err))
		return
	}
	image := models.Image{
		UploaderID: user.ID,
		URL:        url,
	}
	if result := impl.db.Create(&image); result.Error != nil {
		impl.removeStoredObject(c, op, path)
		respondError(c, op, fmt.Errorf("[%s] Fail to create image, err=%w", op, result.Error))
		return
	}
	c.Header("Location", url)
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
