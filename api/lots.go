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

	"leiloes/catalog"
	"leiloes/models"
)

type lotSummary struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	ShortDescription string           `json:"shortDescription"`
	ImageURL         string           `json:"imageUrl"`
	InitialBid       int64            `json:"initialBid"`
	CurrentBid       int64            `json:"currentBid"`
	BidsCount        int64            `json:"bidsCount"`
	EndsAt           time.Time        `json:"endsAt"`
	TimeRemaining    string           `json:"timeRemaining"`
	Status           models.LotStatus `json:"status"`
	CategorySlug     string           `json:"categorySlug,omitempty"`
}

func toLotSummary(lot models.Lot, now time.Time) lotSummary {
	summary := lotSummary{
		ID:               lot.ID,
		Title:            lot.Title,
		ShortDescription: lot.ShortDescription,
		ImageURL:         lot.ImageURL,
		InitialBid:       lot.InitialBid,
		CurrentBid:       lot.CurrentBid,
		BidsCount:        lot.BidsCount,
		EndsAt:           lot.EndsAt,
		TimeRemaining:    catalog.TimeLeft(lot.EndsAt, now),
		Status:           lot.EffectiveStatus(now),
	}
	if lot.Category != nil {
		summary.CategorySlug = lot.Category.Slug
	}
	return summary
}

// List lots with storefront filtering
// (GET /lots?text=&category=&status=)
func (impl *ServerImpl) ListLots(c *gin.Context) {
	const op = "ListLots"
	status := models.LotStatus(c.Query("status"))
	if status != "" && status != models.LotStatusOpen && status != models.LotStatusClosed {
		respondError(c, op, validationError("invalid status filter"))
		return
	}

	var lots []models.Lot
	if result := impl.db.Preload("Category").Order("ends_at").Find(&lots); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list lots, err=%w", op, result.Error))
		return
	}

	now := time.Now()
	filtered := catalog.Filter(lots, catalog.Query{
		Text:         c.Query("text"),
		CategorySlug: c.Query("category"),
		Status:       status,
	}, now)

	c.JSON(http.StatusOK, gin.H{
		"count": len(filtered),
		"lots": lo.Map(filtered, func(lot models.Lot, _ int) lotSummary {
			return toLotSummary(lot, now)
		}),
	})
}

type bidHistoryEntry struct {
	BidAmount  int64     `json:"bidAmount"`
	BidderName string    `json:"bidderName"`
	Time       time.Time `json:"time"`
}

type lotDetail struct {
	lotSummary
	Description string            `json:"description"`
	Images      []string          `json:"images"`
	BidHistory  []bidHistoryEntry `json:"bidHistory"`
}

// Get one lot with its bid history
// (GET /lots/:lotID)
func (impl *ServerImpl) GetLot(c *gin.Context) {
	const op = "GetLot"
	lotID, err := uuid.Parse(c.Param("lotID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}

	lot := models.Lot{ID: lotID}
	if result := impl.db.
		Preload("Category").
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
		}).
		Preload("Bids.User").
		First(&lot); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			respondError(c, op, ErrNotFound)
			return
		}
		respondError(c, op, fmt.Errorf("[%s] Fail to find lot, err=%w", op, result.Error))
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, lotDetail{
		lotSummary:  toLotSummary(lot, now),
		Description: lot.Description,
		Images:      lot.Images,
		BidHistory: lo.Map(lot.Bids, func(bid models.Bid, _ int) bidHistoryEntry {
			return bidHistoryEntry{
				BidAmount:  bid.BidAmount,
				BidderName: bid.User.FirstName + " " + bid.User.LastName,
				Time:       bid.CreatedAt,
			}
		}),
	})
}

// List categories
// (GET /categories)
func (impl *ServerImpl) ListCategories(c *gin.Context) {
	const op = "ListCategories"
	var categories []models.Category
	if result := impl.db.Order("name").Find(&categories); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to list categories, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": lo.Map(categories, func(category models.Category, _ int) gin.H {
			return gin.H{"id": category.ID, "slug": category.Slug, "name": category.Name}
		}),
	})
}

type lotWriteRequest struct {
	Title            *string    `json:"title"`
	ShortDescription *string    `json:"shortDescription"`
	Description      *string    `json:"description"`
	ImageURL         *string    `json:"imageUrl"`
	Images           *[]string  `json:"images"`
	InitialBid       *int64     `json:"initialBid"`
	EndsAt           *time.Time `json:"endsAt"`
	Status           *string    `json:"status"`
	CategoryID       *uuid.UUID `json:"categoryId"`
}

// Create a lot
// (POST /admin/lots)
func (impl *ServerImpl) CreateLot(c *gin.Context) {
	const op = "CreateLot"
	var body lotWriteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	if body.Title == nil || *body.Title == "" {
		respondError(c, op, validationError("title is required"))
		return
	}
	if body.InitialBid == nil || *body.InitialBid <= 0 {
		respondError(c, op, validationError("initial bid must be positive"))
		return
	}
	if body.EndsAt == nil || body.EndsAt.Before(time.Now()) {
		respondError(c, op, validationError("ends_at must be in the future"))
		return
	}

	lot := models.Lot{
		Title:            *body.Title,
		ShortDescription: lo.FromPtr(body.ShortDescription),
		Description:      impl.htmlChecker.Sanitize(lo.FromPtr(body.Description)),
		ImageURL:         lo.FromPtr(body.ImageURL),
		Images:           lo.FromPtr(body.Images),
		InitialBid:       *body.InitialBid,
		CurrentBid:       *body.InitialBid,
		BidsCount:        0,
		EndsAt:           *body.EndsAt,
		Status:           models.LotStatusOpen,
		CategoryID:       body.CategoryID,
	}
	if result := impl.db.Create(&lot); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to create lot, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusCreated, toLotSummary(lot, time.Now()))
}

// Update a lot. current_bid and bids_count are owned by the bid-accept
// transaction and never writable here.
// (PATCH /admin/lots/:lotID)
func (impl *ServerImpl) UpdateLot(c *gin.Context) {
	const op = "UpdateLot"
	lotID, err := uuid.Parse(c.Param("lotID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}
	var body lotWriteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, op, validationError("invalid request payload"))
		return
	}
	if body.Status != nil &&
		*body.Status != string(models.LotStatusOpen) && *body.Status != string(models.LotStatusClosed) {
		respondError(c, op, validationError("invalid status"))
		return
	}
	if body.InitialBid != nil && *body.InitialBid <= 0 {
		respondError(c, op, validationError("initial bid must be positive"))
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

	if body.Title != nil {
		lot.Title = *body.Title
	}
	if body.ShortDescription != nil {
		lot.ShortDescription = *body.ShortDescription
	}
	if body.Description != nil {
		lot.Description = impl.htmlChecker.Sanitize(*body.Description)
	}
	if body.ImageURL != nil {
		lot.ImageURL = *body.ImageURL
	}
	if body.Images != nil {
		lot.Images = *body.Images
	}
	if body.InitialBid != nil {
		lot.InitialBid = *body.InitialBid
	}
	if body.EndsAt != nil {
		lot.EndsAt = *body.EndsAt
	}
	if body.Status != nil {
		lot.Status = models.LotStatus(*body.Status)
	}
	if body.CategoryID != nil {
		lot.CategoryID = body.CategoryID
	}

	// Column list keeps current_bid and bids_count out of the write; those
	// race with the bid-accept transaction.
	if result := impl.db.Model(&lot).
		Select("title", "short_description", "description", "image_url", "images",
			"initial_bid", "ends_at", "status", "category_id").
		Updates(&lot); result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to update lot, err=%w", op, result.Error))
		return
	}
	c.JSON(http.StatusOK, toLotSummary(lot, time.Now()))
}

// Delete a lot
// (DELETE /admin/lots/:lotID)
func (impl *ServerImpl) DeleteLot(c *gin.Context) {
	const op = "DeleteLot"
	lotID, err := uuid.Parse(c.Param("lotID"))
	if err != nil {
		respondError(c, op, ErrNotFound)
		return
	}
	result := impl.db.Delete(&models.Lot{}, "id = ?", lotID)
	if result.Error != nil {
		respondError(c, op, fmt.Errorf("[%s] Fail to delete lot, err=%w", op, result.Error))
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, op, ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
