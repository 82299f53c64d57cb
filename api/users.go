package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"leiloes/models"
)

// Get the session user's profile
// (GET /my/profile)
func (impl *ServerImpl) GetMyProfile(c *gin.Context) {
	const op = "GetMyProfile"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, toUserPayload(user))
}

type patchProfileRequest struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Phone          *string `json:"phone"`
	DocumentNumber *string `json:"documentNumber"`
}

// Update the session user's profile. Email is immutable through this
// surface.
// (PATCH /my/profile)
func (impl *ServerImpl) PatchMyProfile(c *gin.Context) {
	const op = "PatchMyProfile"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	if body.FirstName != nil && strings.TrimSpace(*body.FirstName) == "" {
		respondError(c, op, validationError("first name cannot be empty"))
		return
	}
	if body.LastName != nil && strings.TrimSpace(*body.LastName) == "" {
		respondError(c, op, validationError("last name cannot be empty"))
		return
	}

	if body.FirstName != nil {
		user.FirstName = strings.TrimSpace(*body.FirstName)
	}
	if body.LastName != nil {
		user.LastName = strings.TrimSpace(*body.LastName)
	}
	if body.Phone != nil {
		user.Phone = body.Phone
	}
	if body.DocumentNumber != nil {
		user.DocumentNumber = body.DocumentNumber
	}

	if result := impl.db.Model(user).
		Select("first_name", "last_name", "phone", "document_number").
		Updates(user); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to update profile, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, toUserPayload(user))
}

// List users for the back office
// (GET /admin/users?type=&active=&search=)
func (impl *ServerImpl) ListUsers(c *gin.Context) {
	const op = "ListUsers"
	query := impl.db.Model(&models.User{}).Order("created_at")

	if userType := c.Query("type"); userType != "" {
		switch models.UserType(userType) {
		case models.UserTypeUser, models.UserTypeModerator, models.UserTypeAdmin:
			query = query.Where("user_type = ?", userType)
		default:
			respondError(c, op, validationError("invalid user type filter"))
			return
		}
	}
	if active := c.Query("active"); active != "" {
		switch active {
		case "true":
			query = query.Where("is_active = ?", true)
		case "false":
			query = query.Where("is_active = ?", false)
		default:
			respondError(c, op, validationError("invalid active filter"))
			return
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			needle, needle, needle,
		)
	}

	var users []models.User
	if result := query.Find(&users); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list users, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(users),
		"users": lo.Map(users, func(user models.User, _ int) userPayload {
			return toUserPayload(&user)
		}),
	})
}

type patchUserRequest struct {
	UserType *models.UserType `json:"userType"`
	IsActive *bool            `json:"isActive"`
}

// Update a user's role or active flag
// (PATCH /admin/users/:userID)
func (impl *ServerImpl) PatchUser(c *gin.Context) {
	const op = "PatchUser"
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}
	var body patchUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	if body.UserType != nil {
		switch *body.UserType {
		case models.UserTypeUser, models.UserTypeModerator, models.UserTypeAdmin:
		default:
			respondError(c, op, validationError("invalid user type"))
			return
		}
	}

	user := models.User{ID: userID}
	if result := impl.db.First(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondError(c, op, ErrNotFound)
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to find user, err=%w", op, result.Error))
		return
	}

	if body.UserType != nil {
		user.UserType = *body.UserType
	}
	if body.IsActive != nil {
		user.IsActive = *body.IsActive
	}
	if result := impl.db.Model(&user).
		Select("user_type", "is_active").
		Updates(&user); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to update user, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, toUserPayload(&user))
}

// Back-office dashboard counters
// (GET /admin/dashboard)
func (impl *ServerImpl) GetDashboard(c *gin.Context) {
	const op = "GetDashboard"

	counts := map[string]int64{}
	for name, query := range map[string]*gorm.DB{
		"lots":                  impl.db.Model(&models.Lot{}),
		"openLots":              impl.db.Model(&models.Lot{}).Where("status = ? AND ends_at > ?", models.LotStatusOpen, time.Now()),
		"users":                 impl.db.Model(&models.User{}),
		"pendingDocuments":      impl.db.Model(&models.Document{}).Where("status = ?", models.DocumentStatusPending),
		"pendingQualifications": impl.db.Model(&models.Qualification{}).Where("status = ?", models.QualificationStatusPending),
	} {
		var n int64
		if result := query.Count(&n); result.Error != nil {
			respondError(c, op, fmt.Errorf("[%s] Fail to count %s, err=%w", op, name, result.Error))
			return
		}
		counts[name] = n
	}
	c.JSON(http.StatusOK, counts)
}
