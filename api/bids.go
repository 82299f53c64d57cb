package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leiloes/models"
)

// maxBidIncrement rejects fat-fingered amounts before any storage call.
// R$ 10,000,000.00 in centavos.
const maxBidIncrement = int64(10_000_000_00)

// lockForUpdate adds a row lock on engines that support it. SQLite
// serializes writers on its own and rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

type placeBidRequest struct {
	Increment int64 `json:"increment"`
	// ExpectedCurrentBid is the current bid the caller saw. A mismatch
	// against the locked row means someone else bid first.
	ExpectedCurrentBid int64 `json:"expectedCurrentBid"`
}

// Place a bid on a lot. Validation happens before any storage call; accept
// runs as one transaction so the bid row and the lot counters commit
// together or not at all.
// (POST /lots/:lotID/bids)
func (impl *ServerImpl) PlaceBid(c *gin.Context) {
	const op = "PlaceBid"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}
	lotID, err := uuid.Parse(c.Param("lotID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}
	var body placeBidRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	if body.Increment <= 0 {
		respondError(c, op, validationError("increment must be positive"))
		return
	}
	if body.Increment > maxBidIncrement {
		respondError(c, op, validationError("increment exceeds the allowed maximum"))
		return
	}
	if body.ExpectedCurrentBid <= 0 {
		respondError(c, op, validationError("expectedCurrentBid is required"))
		return
	}

	var accepted models.Lot
	txErr := impl.db.Transaction(func(tx *gorm.DB) error {
		lot := models.Lot{ID: lotID}
		if result := lockForUpdate(tx).First(&lot); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("[%s] Fail to lock lot, err=%w", op, result.Error)
		}
		if lot.EffectiveStatus(time.Now()) == models.LotStatusClosed {
			return validationError("lot is closed")
		}
		if lot.CurrentBid != body.ExpectedCurrentBid {
			return ErrBidConflict
		}

		total := lot.CurrentBid + body.Increment
		bid := models.Bid{
			LotID:     lot.ID,
			UserID:    user.ID,
			LotTitle:  lot.Title,
			BidAmount: total,
			Status:    models.BidStatusPending,
		}
		if result := tx.Create(&bid); result.Error != nil {
			return fmt.Errorf("[%s] Fail to create bid, err=%w", op, result.Error)
		}

		// The row is locked, so the compare-and-set guard only fires if
		// something else wrote current_bid outside this code path.
		result := tx.Model(&models.Lot{}).
			Where("id = ? AND current_bid = ?", lot.ID, lot.CurrentBid).
			Updates(map[string]any{
				"current_bid": total,
				"bids_count":  gorm.Expr("bids_count + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("[%s] Fail to update lot bid, err=%w", op, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrBidConflict
		}

		lot.CurrentBid = total
		lot.BidsCount++
		accepted = lot
		return nil
	})
	if txErr != nil {
		respondError(c, op, txErr)
		return
	}

	event := BidEvent{
		LotID:      accepted.ID,
		BidAmount:  accepted.CurrentBid,
		BidsCount:  accepted.BidsCount,
		BidderName: user.FirstName + " " + user.LastName,
		Time:       time.Now(),
	}
	// A failed publish never unwinds the committed bid.
	if err := impl.sseManager.Publish(accepted.ID.String(), event); err != nil {
		slog.Error("Fail to publish bid event",
			slog.String("op", op),
			slog.String("lotID", accepted.ID.String()),
			slog.Any("error", err))
	}
	slog.Info("Bid accepted",
		slog.String("lotID", accepted.ID.String()),
		slog.String("userID", user.ID.String()),
		slog.Int64("bidAmount", accepted.CurrentBid))

	c.JSON(http.StatusCreated, gin.H{
		"lotId":      accepted.ID,
		"currentBid": accepted.CurrentBid,
		"bidsCount":  accepted.BidsCount,
	})
}

type myBidEntry struct {
	ID        uuid.UUID        `json:"id"`
	LotID     uuid.UUID        `json:"lotId"`
	LotTitle  string           `json:"lotTitle"`
	BidAmount int64            `json:"bidAmount"`
	Status    models.BidStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

// List the session user's bids, newest first
// (GET /my/bids)
func (impl *ServerImpl) ListMyBids(c *gin.Context) {
	const op = "ListMyBids"
	user, err := impl.currentUser(c)
	if err != nil {
		respondError(c, op, err)
		return
	}

	var bids []models.Bid
	if result := impl.db.
		Where("user_id = ?", user.ID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&bids); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list bids, err=%w", op, result.Error))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(bids),
		"bids": lo.Map(bids, func(bid models.Bid, _ int) myBidEntry {
			return myBidEntry{
				ID:        bid.ID,
				LotID:     bid.LotID,
				LotTitle:  bid.LotTitle,
				BidAmount: bid.BidAmount,
				Status:    bid.Status,
				CreatedAt: bid.CreatedAt,
			}
		}),
	})
}
