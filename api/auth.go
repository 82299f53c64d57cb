package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"leiloes/adapters/session"
	"leiloes/models"
)

type userPayload struct {
	ID             uuid.UUID       `json:"id"`
	Email          string          `json:"email"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	UserType       models.UserType `json:"userType"`
	IsActive       bool            `json:"isActive"`
	Phone          *string         `json:"phone,omitempty"`
	DocumentNumber *string         `json:"documentNumber,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toUserPayload(user *models.User) userPayload {
	return userPayload{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		UserType:       user.UserType,
		IsActive:       user.IsActive,
		Phone:          user.Phone,
		DocumentNumber: user.DocumentNumber,
		CreatedAt:      user.CreatedAt,
	}
}

type signUpRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Phone          *string `json:"phone"`
	DocumentNumber *string `json:"documentNumber"`
}

// Register a new account
// (POST /auth/signup)
func (impl *ServerImpl) SignUp(c *gin.Context) {
	const op = "SignUp"
	var body signUpRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		respondError(c, op, validationError("invalid email address"))
		return
	}
	if len(body.Password) < 8 {
		respondError(c, op, validationError("password must be at least 8 characters"))
		return
	}
	if strings.TrimSpace(body.FirstName) == "" || strings.TrimSpace(body.LastName) == "" {
		respondError(c, op, validationError("first and last name are required"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to hash password, err=%w", op, err))
		return
	}

	user := models.User{
		Email:          body.Email,
		PasswordHash:   string(hash),
		FirstName:      strings.TrimSpace(body.FirstName),
		LastName:       strings.TrimSpace(body.LastName),
		UserType:       models.UserTypeUser,
		IsActive:       true,
		Phone:          body.Phone,
		DocumentNumber: body.DocumentNumber,
	}
	if result := impl.db.Create(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			respondError(c, op, validationError("email already registered"))
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to create user, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusCreated, toUserPayload(&user))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Sign in with email and password
// (POST /auth/signin)
func (impl *ServerImpl) SignIn(c *gin.Context) {
	const op = "SignIn"
	var body signInRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))

	var user models.User
	if result := impl.db.Where("email = ?", body.Email).First(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondError(c, op, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated))
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to find user, err=%w", op, result.Error))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		respondError(c, op, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated))
		return
	}
	if !user.IsActive {
		respondError(c, op, ErrForbidden)
		return
	}

	sess, err := session.GetSession(c)
	if err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to get session, err=%w", op, err))
		return
	}
	sess.Clear()
	sess.Set(SESSION_KEY_USER_ID, user.ID.String())
	sess.Set(SESSION_KEY_USER_TYPE, string(user.UserType))
	if err := sess.Save(); err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to save session, err=%w", op, err))
		return
	}
	c.JSON(http.StatusOK, toUserPayload(&user))
}

// Sign out
// (POST /auth/signout)
func (impl *ServerImpl) SignOut(c *gin.Context) {
	const op = "SignOut"
	sess, err := session.GetSession(c)
	if err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to get session, err=%w", op, err))
		return
	}
	sess.Clear()
	if err := sess.Save(); err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to save session, err=%w", op, err))
		return
	}
	c.Status(http.StatusNoContent)
}

type sessionStateResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *userPayload `json:"user,omitempty"`
}

// Report the caller's session state. The storefront polls this to pick up
// server-side expiry.
// (GET /auth/session)
func (impl *ServerImpl) GetSessionState(c *gin.Context) {
	user, err := impl.currentUser(c)
	if err != nil {
		// Expired, unknown or deactivated sessions all read as anonymous.
		c.JSON(http.StatusOK, sessionStateResponse{Authenticated: false})
		return
	}
	payload := toUserPayload(user)
	c.JSON(http.StatusOK, sessionStateResponse{Authenticated: true, User: &payload})
}
