package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leiloes/models"
)

// pngBytes returns content that http.DetectContentType reports as a PNG.
func pngBytes(size int) []byte {
	content := make([]byte, size)
	copy(content, []byte("\x89PNG\r\n\x1a\n"))
	return content
}

func postImage(t *testing.T, env *testEnv, content []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/images", bytes.NewReader(content))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestPostImage(t *testing.T) {
	env := setupServer(t)
	admin := env.createUser(t, "admin@example.com", models.UserTypeAdmin)
	cookie := env.signIn(t, admin)

	w := postImage(t, env, pngBytes(2048), cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	url := decodeBody(t, w)["url"].(string)
	assert.Contains(t, url, "images/")
	assert.Contains(t, url, ".png")
	assert.Equal(t, url, w.Header().Get("Location"))

	var image models.Image
	require.NoError(t, env.impl.db.First(&image, "uploader_id = ?", admin.ID).Error)
	assert.Equal(t, url, image.URL)
}

func TestPostImage_Rejections(t *testing.T) {
	env := setupServer(t)
	admin := env.createUser(t, "admin@example.com", models.UserTypeAdmin)
	cookie := env.signIn(t, admin)

	t.Run("too_large", func(t *testing.T) {
		w := postImage(t, env, pngBytes(maxImageSize+1), cookie)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "5.00 MB")
	})

	t.Run("not_an_image", func(t *testing.T) {
		w := postImage(t, env, pdfBytes(512), cookie)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid image type")
	})

	t.Run("rate_limited", func(t *testing.T) {
		env.impl.config.Uploads.RateLimitPerHour = 1
		w := postImage(t, env, pngBytes(64), cookie)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		w = postImage(t, env, pngBytes(64), cookie)
		require.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	// Only the successful upload reached storage.
	assert.Len(t, env.storage.objects, 1)
}
