package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leiloes/adapters/sse"
	"leiloes/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard)
}

// memoryStore is an in-process session.IStore.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]map[string]string{}}
}

func (s *memoryStore) Load(_ context.Context, name string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.data[name] {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, name string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := map[string]string{}
	for k, v := range data {
		copied[k] = v
	}
	s.data[name] = copied
	return nil
}

// stubStorage records object operations and can be told to fail.
type stubStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	removed  []string
	failNext bool
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: map[string][]byte{}}
}

func (s *stubStorage) Upload(_ context.Context, path, _ string, fileContent []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return "", fmt.Errorf("stub upload failure")
	}
	s.objects[path] = fileContent
	return "https://cdn.example.test/" + path, nil
}

func (s *stubStorage) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	s.removed = append(s.removed, path)
	return nil
}

func (s *stubStorage) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

type testEnv struct {
	impl    *ServerImpl
	router  *gin.Engine
	store   *memoryStore
	storage *stubStorage
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Lot{},
		&models.Bid{},
		&models.Qualification{},
		&models.Document{},
		&models.Image{},
	))

	store := newMemoryStore()
	storage := newStubStorage()
	manager := sse.NewConnectionManager[BidEvent]()
	t.Cleanup(manager.Done)

	impl := &ServerImpl{
		db:           db,
		storage:      storage,
		sseManager:   manager,
		htmlChecker:  bluemonday.UGCPolicy(),
		sessionStore: store,
		config: ServerConfig{
			Session: SessionConfig{
				KeyForCookie: "session",
				CookieMaxAge: time.Hour,
			},
			Uploads: UploadConfig{RateLimitPerHour: 10},
		},
	}

	router := gin.New()
	impl.RegisterRoutes(router)

	return &testEnv{impl: impl, router: router, store: store, storage: storage}
}

func (env *testEnv) createUser(t *testing.T, email string, userType models.UserType) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha-muito-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Joana",
		LastName:     "Almeida",
		UserType:     userType,
		IsActive:     true,
	}
	require.NoError(t, env.impl.db.Create(user).Error)
	return user
}

// signIn seeds a server-side session for user and returns its cookie.
func (env *testEnv) signIn(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	sid := uuid.NewString()
	require.NoError(t, env.store.Save(context.Background(), sid, map[string]string{
		SESSION_KEY_USER_ID:   user.ID.String(),
		SESSION_KEY_USER_TYPE: string(user.UserType),
	}))
	return &http.Cookie{Name: "session", Value: sid}
}

func (env *testEnv) createLot(t *testing.T, title string, currentBid int64, endsAt time.Time) *models.Lot {
	t.Helper()
	lot := &models.Lot{
		Title:            title,
		ShortDescription: "Lote de teste",
		Description:      "Descrição do lote",
		InitialBid:       currentBid,
		CurrentBid:       currentBid,
		EndsAt:           endsAt,
		Status:           models.LotStatusOpen,
	}
	require.NoError(t, env.impl.db.Create(lot).Error)
	return lot
}

func doJSON(t *testing.T, router *gin.Engine, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doMultipart(t *testing.T, router *gin.Engine, method, target, fileName string, content []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// pdfBytes returns content that http.DetectContentType reports as a PDF.
func pdfBytes(size int) []byte {
	content := make([]byte, size)
	copy(content, []byte("%PDF-1.4\n"))
	return content
}
