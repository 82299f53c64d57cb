package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	internalS3 "leiloes/adapters/s3"
	"leiloes/models"
)

const maxDocumentSize = 5 << 20

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFileName strips everything that has no place in an object key.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeFileNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "document"
	}
	return name
}

type storedDocument struct {
	name        string
	fileURL     string
	storagePath string
	mimeType    string
}

// readAndStoreDocument validates the multipart file (size cap, detected
// MIME) and uploads it. The caller owns the compensation: if its metadata
// write fails it must Remove the stored object.
func (impl *ServerImpl) readAndStoreDocument(c *gin.Context, userID uuid.UUID) (*storedDocument, error) {
	const op = "readAndStoreDocument"
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, validationError("file field is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to open uploaded file, err=%w", op, err)
	}
	defer file.Close()

	// Size cap first, before the bytes go anywhere near storage.
	body := internalS3.NewMaxSizeReader(file, maxDocumentSize)
	content, err := io.ReadAll(body)
	if errors.As(err, &internalS3.ErrReachLimitType) {
		return nil, validationError("file exceeds %s", internalS3.FormatBytes(maxDocumentSize))
	}
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to read uploaded file, err=%w", op, err)
	}

	mimeType := http.DetectContentType(content)
	allowed, _ := internalS3.CheckDocumentAndGetExtension(mimeType)
	if !allowed {
		return nil, validationError("unsupported document type: %s", mimeType)
	}

	name := sanitizeFileName(fileHeader.Filename)
	storagePath := fmt.Sprintf("documents/%s/%d-%s", userID, time.Now().UnixMilli(), name)
	fileURL, err := impl.storage.Upload(c.Request.Context(), storagePath, mimeType, content)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to upload document, err=%w", op, err)
	}
	return &storedDocument{
		name:        name,
		fileURL:     fileURL,
		storagePath: storagePath,
		mimeType:    mimeType,
	}, nil
}

// removeStoredObject compensates an upload whose metadata write failed.
// Removal failure is logged only; the object is orphaned, not the row.
func (impl *ServerImpl) removeStoredObject(c *gin.Context, op, storagePath string) {
	if err := impl.storage.Remove(c.Request.Context(), storagePath); err != nil {
		slog.Error("Fail to remove stored object after failed write",
			slog.String("op", op),
			slog.String("storagePath", storagePath),
			slog.Any("error", err))
	}
}

func (impl *ServerImpl) checkUploadRateLimit(userID uuid.UUID) error {
	const op = "checkUploadRateLimit"
	if impl.config.Uploads.RateLimitPerHour <= 0 {
		return nil
	}
	var uploadedCount int64
	if result := impl.db.Model(&models.Document{}).
		Where("user_id = ? AND uploaded_at > ?", userID, time.Now().Add(-1*time.Hour)).
		Count(&uploadedCount); result.Error != nil {
		return fmt.Errorf("[%s] Fail to count uploaded documents, err=%w", op, result.Error)
	}
	if uploadedCount >= impl.config.Uploads.RateLimitPerHour {
		return ErrRateLimited
	}
	return nil
}

type documentPayload struct {
	ID              uuid.UUID             `json:"id"`
	Name            string                `json:"name"`
	FileURL         string                `json:"fileUrl"`
	Status          models.DocumentStatus `json:"status"`
	RejectionReason *string               `json:"rejectionReason,omitempty"`
	UploadedAt      time.Time             `json:"uploadedAt"`
}

func toDocumentPayload(doc models.Document) documentPayload {
	return documentPayload{
		ID:              doc.ID,
		Name:            doc.Name,
		FileURL:         doc.FileURL,
		Status:          doc.Status,
		RejectionReason: doc.RejectionReason,
		UploadedAt:      doc.UploadedAt,
	}
}

// Upload a new document. Storage first, then the metadata row; a failed row
// insert removes the stored object again.
// (POST /my/documents)
func (impl *ServerImpl) UploadDocument(c *gin.Context) {
	const op = "UploadDocument"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	if err := impl.checkUploadRateLimit(user.ID); err != nil {
		respondError(c, op, err)
		return
	}

	stored, err := impl.readAndStoreDocument(c, user.ID)
	if err != nil {
		respondError(c, op, err)
		return
	}

	doc := models.Document{
		UserID:      user.ID,
		Name:        stored.name,
		FileURL:     stored.fileURL,
		StoragePath: stored.storagePath,
		// Status is forced here, never taken from the request.
		Status:     models.DocumentStatusPending,
		UploadedAt: time.Now(),
	}
	if result := impl.db.Create(&doc); result.Error != nil {
		impl.removeStoredObject(c, op, stored.storagePath)
		respondError(c, op, fmt.Errorf("[%s] Fail to create document, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusCreated, toDocumentPayload(doc))
}

// Replace a document's file. The row always goes back to Pending with the
// rejection reason cleared; the previous object stays where it is. A failed
// metadata update removes the newly stored object.
// (PUT /my/documents/:documentID)
func (impl *ServerImpl) ReplaceDocument(c *gin.Context) {
	const op = "ReplaceDocument"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	documentID, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}

	var doc models.Document
	if result := impl.db.Where("id = ? AND user_id = ?", documentID, user.ID).First(&doc); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondError(c, op, ErrNotFound)
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to find document, err=%w", op, result.Error))
		return
	}

	stored, err := impl.readAndStoreDocument(c, user.ID)
	if err != nil {
		respondError(c, op, err)
		return
	}

	now := time.Now()
	updates := map[string]any{
		"name":             stored.name,
		"file_url":         stored.fileURL,
		"storage_path":     stored.storagePath,
		"status":           models.DocumentStatusPending,
		"rejection_reason": nil,
		"uploaded_at":      now,
	}
	if result := impl.db.Model(&doc).Updates(updates); result.Error != nil {
		impl.removeStoredObject(c, op, stored.storagePath)
		respondError(c, op, fmt.Errorf("[%s] Fail to update document, err=%w", op, result.Error))
		return
	}
	doc.Name = stored.name
	doc.FileURL = stored.fileURL
	doc.StoragePath = stored.storagePath
	doc.Status = models.DocumentStatusPending
	doc.RejectionReason = nil
	doc.UploadedAt = now
	c.JSON(http.StatusOK, toDocumentPayload(doc))
}

// List the session user's documents
// (GET /my/documents)
func (impl *ServerImpl) ListMyDocuments(c *gin.Context) {
	const op = "ListMyDocuments"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	var docs []models.Document
	if result := impl.db.
		Where("user_id = ?", user.ID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "uploaded_at"}, Desc: true}).
		Find(&docs); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list documents, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(docs),
		"documents": lo.Map(docs, func(doc models.Document, _ int) documentPayload { return toDocumentPayload(doc) }),
	})
}

// List documents for moderation, optionally by status
// (GET /admin/documents?status=)
func (impl *ServerImpl) ListDocuments(c *gin.Context) {
	const op = "ListDocuments"
	query := impl.db.Preload("User").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "uploaded_at"}, Desc: true})
	if status := c.Query("status"); status != "" {
		switch models.DocumentStatus(status) {
		case models.DocumentStatusPending, models.DocumentStatusApproved, models.DocumentStatusRejected:
			query = query.Where("status = ?", status)
		default:
			respondError(c, op, validationError("invalid status filter"))
			return
		}
	}

	var docs []models.Document
	if result := query.Find(&docs); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list documents, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(docs),
		"documents": lo.Map(docs, func(doc models.Document, _ int) gin.H {
			return gin.H{
				"document":  toDocumentPayload(doc),
				"userId":    doc.UserID,
				"userEmail": doc.User.Email,
				"userName":  doc.User.FirstName + " " + doc.User.LastName,
			}
		}),
	})
}

type documentDecisionRequest struct {
	Decision string  `json:"decision"`
	Reason   *string `json:"reason"`
}

// Decide a document. Rejection without a reason is refused before any
// write; approval always clears the stored reason.
// (POST /admin/documents/:documentID/decision)
func (impl *ServerImpl) DecideDocument(c *gin.Context) {
	const op = "DecideDocument"
	documentID, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}
	var body documentDecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}

	var status models.DocumentStatus
	var reason *string
	switch models.DocumentStatus(body.Decision) {
	case models.DocumentStatusApproved:
		status = models.DocumentStatusApproved
		reason = nil
	case models.DocumentStatusRejected:
		if body.Reason == nil || strings.TrimSpace(*body.Reason) == "" {
			respondError(c, op, validationError("rejection requires a reason"))
			return
		}
		status = models.DocumentStatusRejected
		reason = lo.ToPtr(strings.TrimSpace(*body.Reason))
	default:
		respondError(c, op, validationError("decision must be Approved or Rejected"))
		return
	}

	var doc models.Document
	if result := impl.db.First(&doc, "id = ?", documentID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondError(c, op, ErrNotFound)
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to find document, err=%w", op, result.Error))
		return
	}

	if result := impl.db.Model(&doc).Updates(map[string]any{
		"status":           status,
		"rejection_reason": reason,
	}); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to update document, err=%w", op, result.Error))
		return
	}
	doc.Status = status
	doc.RejectionReason = reason
	c.JSON(http.StatusOK, toDocumentPayload(doc))
}
