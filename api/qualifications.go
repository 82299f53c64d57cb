package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leiloes/models"
)

type qualificationPayload struct {
	ID        uuid.UUID                  `json:"id"`
	Type      models.QualificationType   `json:"type"`
	Status    models.QualificationStatus `json:"status"`
	ExpiresAt *time.Time                 `json:"expiresAt,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
}

func toQualificationPayload(q models.Qualification) qualificationPayload {
	return qualificationPayload{
		ID:        q.ID,
		Type:      q.Type,
		Status:    q.Status,
		ExpiresAt: q.ExpiresAt,
		CreatedAt: q.CreatedAt,
	}
}

type qualificationRequest struct {
	Type models.QualificationType `json:"type"`
}

// Request a qualification. One pending request per type per user.
// (POST /my/qualifications)
func (impl *ServerImpl) RequestQualification(c *gin.Context) {
	const op = "RequestQualification"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	var body qualificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	if !models.ValidQualificationType(body.Type) {
		respondError(c, op, validationError("invalid qualification type"))
		return
	}

	var pendingCount int64
	if result := impl.db.Model(&models.Qualification{}).
		Where("user_id = ? AND type = ? AND status = ?", user.ID, body.Type, models.QualificationStatusPending).
		Count(&pendingCount); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to count pending qualifications, err=%w", op, result.Error))
		return
	}
	if pendingCount > 0 {
		respondError(c, op, validationError("a request of this type is already pending"))
		return
	}

	qualification := models.Qualification{
		UserID: user.ID,
		Type:   body.Type,
		Status: models.QualificationStatusPending,
	}
	if result := impl.db.Create(&qualification); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			respondError(c, op, validationError("a request of this type is already pending"))
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to create qualification, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusCreated, toQualificationPayload(qualification))
}

// List the session user's qualification requests
// (GET /my/qualifications)
func (impl *ServerImpl) ListMyQualifications(c *gin.Context) {
	const op = "ListMyQualifications"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	var qualifications []models.Qualification
	if result := impl.db.
		Where("user_id = ?", user.ID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&qualifications); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list qualifications, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(qualifications),
		"qualifications": lo.Map(qualifications, func(q models.Qualification, _ int) qualificationPayload {
			return toQualificationPayload(q)
		}),
	})
}
