// Package ledger builds per-instrument acquisition lot lists from raw
// portfolio transactions.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/models"
)

// acceptedDateLayouts are the formats an acquisition date may arrive in.
var acceptedDateLayouts = []string{"2006-01-02", "2006/01/02"}

// ParseAcquiredDate parses an acquisition date string.
func ParseAcquiredDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Build groups raw ledger transactions into per-instrument lot lists.
// Invalid rows are excluded and reported as warnings, never merged silently.
// Within each holding, lots are sorted ascending by acquisition date; rows
// sharing a date keep their input order.
func Build(transactions []models.Transaction) (models.Ledger, []models.Warning) {
	ledger := make(models.Ledger)
	var warnings []models.Warning

	for i, tx := range transactions {
		row := i + 1
		code := strings.TrimSpace(tx.Code)
		if code == "" {
			warnings = append(warnings, models.Warning{
				Source:  "ledger",
				Row:     row,
				Message: "transaction has no instrument code",
			})
			continue
		}

		acquired, err := ParseAcquiredDate(tx.AcquiredDate)
		if err != nil {
			warnings = append(warnings, models.Warning{
				Source:  "ledger",
				Code:    code,
				Row:     row,
				Message: fmt.Sprintf("invalid acquired date: %v", err),
			})
			continue
		}
		if tx.Quantity <= 0 {
			warnings = append(warnings, models.Warning{
				Source:  "ledger",
				Code:    code,
				Row:     row,
				Message: fmt.Sprintf("non-positive quantity %v", tx.Quantity),
			})
			continue
		}
		if tx.LocalPrice <= 0 {
			warnings = append(warnings, models.Warning{
				Source:  "ledger",
				Code:    code,
				Row:     row,
				Message: fmt.Sprintf("non-positive price %v", tx.LocalPrice),
			})
			continue
		}

		currency := strings.ToUpper(strings.TrimSpace(tx.Currency))
		if currency == "" {
			currency = common.HomeCurrency
		}

		fxRate := tx.FXRate
		homePrice := tx.LocalPrice
		if currency != common.HomeCurrency && fxRate > 0 {
			homePrice = tx.LocalPrice * fxRate
		}
		if currency == common.HomeCurrency {
			fxRate = 0
		}

		holding, ok := ledger[code]
		if !ok {
			holding = &models.Holding{
				Code:     code,
				Name:     strings.TrimSpace(tx.Name),
				Currency: currency,
			}
			ledger[code] = holding
		} else if name := strings.TrimSpace(tx.Name); name != "" && holding.Name != "" && name != holding.Name {
			warnings = append(warnings, models.Warning{
				Source:  "ledger",
				Code:    code,
				Row:     row,
				Message: fmt.Sprintf("name %q differs from first-seen %q, keeping the latter", name, holding.Name),
			})
		}
		if holding.Name == "" {
			holding.Name = strings.TrimSpace(tx.Name)
		}

		holding.Lots = append(holding.Lots, models.Lot{
			AcquiredDate: acquired,
			Quantity:     tx.Quantity,
			LocalPrice:   tx.LocalPrice,
			HomePrice:    homePrice,
			FXRate:       fxRate,
			Currency:     currency,
		})
	}

	// Stable sort keeps input order for lots sharing an acquisition date.
	for _, holding := range ledger {
		lots := holding.Lots
		sort.SliceStable(lots, func(i, j int) bool {
			return lots[i].AcquiredDate.Before(lots[j].AcquiredDate)
		})
	}

	return ledger, warnings
}
