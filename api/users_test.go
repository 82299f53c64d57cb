package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leiloes/models"
)

func TestPatchMyProfile(t *testing.T) {
	env := setupServer(t)
	user := env.createUser(t, "joana@example.com", models.UserTypeUser)
	cookie := env.signIn(t, user)

	w := doJSON(t, env.router, http.MethodPatch, "/my/profile", patchProfileRequest{
		FirstName: lo.ToPtr("  Joana Maria "),
		Phone:     lo.ToPtr("+55 11 91234-5678"),
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, env.impl.db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "Joana Maria", stored.FirstName)
	assert.Equal(t, "Almeida", stored.LastName)
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "+55 11 91234-5678", *stored.Phone)
	// Email never changes through this surface.
	assert.Equal(t, "joana@example.com", stored.Email)

	t.Run("blank_name_refused", func(t *testing.T) {
		w := doJSON(t, env.router, http.MethodPatch, "/my/profile", patchProfileRequest{
			FirstName: lo.ToPtr("   "),
		}, cookie)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListUsers(t *testing.T) {
	env := setupServer(t)
	admin := env.createUser(t, "admin@example.com", models.UserTypeAdmin)
	env.createUser(t, "joana@example.com", models.UserTypeUser)
	deactivated := env.createUser(t, "pedro@example.com", models.UserTypeUser)
	require.NoError(t, env.impl.db.Model(deactivated).Update("is_active", false).Error)
	cookie := env.signIn(t, admin)

	testCases := []struct {
		name          string
		query         string
		expectedCount int
	}{
		{"all", "", 3},
		{"by_type", "?type=admin", 1},
		{"active_only", "?active=true", 2},
		{"inactive_only", "?active=false", 1},
		{"search_email", "?search=PEDRO", 1},
		{"search_name", "?search=almeida", 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, env.router, http.MethodGet, "/admin/users"+tc.query, nil, cookie)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.EqualValues(t, tc.expectedCount, decodeBody(t, w)["count"])
		})
	}

	for _, query := range []string{"?type=root", "?active=maybe"} {
		t.Run("invalid"+query, func(t *testing.T) {
			w := doJSON(t, env.router, http.MethodGet, "/admin/users"+query, nil, cookie)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPatchUser(t *testing.T) {
	env := setupServer(t)
	admin := env.createUser(t, "admin@example.com", models.UserTypeAdmin)
	user := env.createUser(t, "joana@example.com", models.UserTypeUser)
	cookie := env.signIn(t, admin)

	w := doJSON(t, env.router, http.MethodPatch, "/admin/users/"+user.ID.String(), patchUserRequest{
		UserType: lo.ToPtr(models.UserTypeModerator),
		IsActive: lo.ToPtr(false),
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, env.impl.db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, models.UserTypeModerator, stored.UserType)
	assert.False(t, stored.IsActive)

	t.Run("invalid_type", func(t *testing.T) {
		w := doJSON(t, env.router, http.MethodPatch, "/admin/users/"+user.ID.String(), patchUserRequest{
			UserType: lo.ToPtr(models.UserType("root")),
		}, cookie)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown_user", func(t *testing.T) {
		w := doJSON(t, env.router, http.MethodPatch, "/admin/users/0e3f8a44-7e2a-4c53-9a57-000000000000", patchUserRequest{
			IsActive: lo.ToPtr(true),
		}, cookie)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetDashboard(t *testing.T) {
	env := setupServer(t)
	admin := env.createUser(t, "admin@example.com", models.UserTypeAdmin)
	user := env.createUser(t, "joana@example.com", models.UserTypeUser)
	cookie := env.signIn(t, admin)

	env.createLot(t, "Lote aberto", 100_00, time.Now().Add(time.Hour))
	env.createLot(t, "Lote vencido", 100_00, time.Now().Add(-time.Hour))
	require.NoError(t, env.impl.db.Create(&models.Document{
		UserID:      user.ID,
		Name:        "rg.pdf",
		FileURL:     "https://cdn.example.test/documents/rg.pdf",
		StoragePath: "documents/rg.pdf",
		Status:      models.DocumentStatusPending,
		UploadedAt:  time.Now(),
	}).Error)
	require.NoError(t, env.impl.db.Create(&models.Qualification{
		UserID: user.ID,
		Type:   models.QualificationGeneral,
		Status: models.QualificationStatusApproved,
	}).Error)

	w := doJSON(t, env.router, http.MethodGet, "/admin/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["lots"])
	// The expired lot no longer counts as open.
	assert.EqualValues(t, 1, body["openLots"])
	assert.EqualValues(t, 2, body["users"])
	assert.EqualValues(t, 1, body["pendingDocuments"])
	assert.EqualValues(t, 0, body["pendingQualifications"])
}
