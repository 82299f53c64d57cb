// Package catalog holds the pure storefront functions: filtering the lot
// snapshot and formatting the auction countdown. Both are side-effect free so
// the handlers stay thin and the behavior is testable without a database.
package catalog

import (
	"strings"
	"time"

	"leiloes/models"
)

// Query is the storefront filter: a free-text needle matched against title
// and short description, plus optional category and status equality. Empty
// fields mean "no constraint".
type Query struct {
	Text         string
	CategorySlug string
	Status       models.LotStatus
}

// Filter applies q over a complete lot snapshot and returns the matches in
// input order. Text matching is a case-insensitive substring test; status is
// compared against the lot's effective status at now, so an expired lot that
// is still open in the database filters as closed.
func Filter(lots []models.Lot, q Query, now time.Time) []models.Lot {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]models.Lot, 0, len(lots))
	for _, lot := range lots {
		if needle != "" &&
			!strings.Contains(strings.ToLower(lot.Title), needle) &&
			!strings.Contains(strings.ToLower(lot.ShortDescription), needle) {
			continue
		}
		if q.CategorySlug != "" {
			if lot.Category == nil || lot.Category.Slug != q.CategorySlug {
				continue
			}
		}
		if q.Status != "" && lot.EffectiveStatus(now) != q.Status {
			continue
		}
		out = append(out, lot)
	}
	return out
}
