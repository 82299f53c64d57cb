package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"leiloes/models"
)

// Stream live bid events for a lot over SSE. The subscription is torn down
// when the client disconnects; an empty line every 30 seconds keeps proxies
// from dropping quiet connections.
// (GET /lots/:lotID/events)
func (impl *ServerImpl) StreamLotEvents(c *gin.Context) {
	const op = "StreamLotEvents"
	lotID, err := uuid.Parse(c.Param("lotID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}

	lot := models.Lot{ID: lotID}
	if result := impl.db.First(&lot); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondError(c, op, ErrNotFound)
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to find lot, err=%w", op, result.Error))
		return
	}
	if lot.EffectiveStatus(time.Now()) == models.LotStatusClosed {
		c.AbortWithStatusJSON(http.StatusGone, errorResponse{Error: "auction has ended"})
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")

	channelName := lot.ID.String()
	ch, err := impl.sseManager.Subscribe(channelName)
	if err != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to subscribe to lot events, err=%w", op, err))
		return
	}

	for {
		select {
		case <-c.Request.Context().Done():
			impl.sseManager.Unsubscribe(channelName, ch)
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("bid", event)
			w.Flush()
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}
