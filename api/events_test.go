package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leiloes/models"
)

func TestStreamLotEvents_UnknownLot(t *testing.T) {
	env := setupServer(t)
	for _, target := range []string{
		"/lots/not-a-uuid/events",
		"/lots/0e3f8a44-7e2a-4c53-9a57-000000000000/events",
	} {
		w := doJSON(t, env.router, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestStreamLotEvents_ClosedLot(t *testing.T) {
	env := setupServer(t)
	lot := env.createLot(t, "Lote encerrado", 100_00, time.Now().Add(-time.Minute))

	w := doJSON(t, env.router, http.MethodGet, "/lots/"+lot.ID.String()+"/events", nil)
	require.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "auction has ended")
}

// streamRecorder is a concurrency-safe response writer for the long-lived
// SSE handler, which keeps writing while the test goroutine polls the body.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: http.Header{}}
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *streamRecorder) WriteHeader(int) {}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Len()
}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func TestStreamLotEvents_DeliversBid(t *testing.T) {
	env := setupServer(t)
	bidder := env.createUser(t, "bidder@example.com", models.UserTypeUser)
	cookie := env.signIn(t, bidder)
	lot := env.createLot(t, "Lote ao vivo", 1_000_00, time.Now().Add(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/lots/"+lot.ID.String()+"/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		env.router.ServeHTTP(rec, req)
	}()

	// Bids placed before the stream finished subscribing are not replayed,
	// so keep bidding (with a fresh expected bid) until one shows up.
	require.Eventually(t, func() bool {
		var stored models.Lot
		require.NoError(t, env.impl.db.First(&stored, "id = ?", lot.ID).Error)
		w := doJSON(t, env.router, http.MethodPost, "/lots/"+lot.ID.String()+"/bids", placeBidRequest{
			Increment:          100_00,
			ExpectedCurrentBid: stored.CurrentBid,
		}, cookie)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return rec.Len() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-streamDone

	body := rec.String()
	assert.Contains(t, body, "event:bid")
	assert.Contains(t, body, lot.ID.String())
	assert.Contains(t, body, "Joana Almeida")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
