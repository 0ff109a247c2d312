package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fumisaki/kakeibo/internal/model"
)

// Normalized projections hashed for integrity checking. Dates are ISO
// strings and only the stable field subset participates, so a checksum
// survives a round trip through JSON.

type transactionProjection struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"categoryId"`
	Type        string  `json:"type"`
}

type categoryProjection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Type      string `json:"type"`
	IsDefault bool   `json:"isDefault"`
}

// Checksum computes an order-sensitive polynomial rolling hash over the
// normalized projection of both arrays. Good enough to catch casual
// corruption or tampering with the declared counts; not cryptographic.
func Checksum(transactions []model.Transaction, categories []model.Category) string {
	txnProjections := make([]transactionProjection, 0, len(transactions))
	for _, txn := range transactions {
		txnProjections = append(txnProjections, transactionProjection{
			ID:          txn.ID,
			Date:        txn.Date.UTC().Format(time.RFC3339Nano),
			Amount:      txn.Amount,
			Description: txn.Description,
			CategoryID:  txn.CategoryID,
			Type:        string(txn.Type),
		})
	}

	catProjections := make([]categoryProjection, 0, len(categories))
	for _, cat := range categories {
		catProjections = append(catProjections, categoryProjection{
			ID:        cat.ID,
			Name:      cat.Name,
			Color:     cat.Color,
			Type:      string(cat.Type),
			IsDefault: cat.IsDefault,
		})
	}

	// Marshal of slices of flat structs cannot fail.
	txnJSON, _ := json.Marshal(txnProjections)
	catJSON, _ := json.Marshal(catProjections)

	var hash uint32
	for _, b := range txnJSON {
		hash = hash*31 + uint32(b)
	}
	for _, b := range catJSON {
		hash = hash*31 + uint32(b)
	}

	return fmt.Sprintf("%08x", hash)
}
