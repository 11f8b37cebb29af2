package transactions

import (
	"sort"
	"time"

	"aether-backend/internal/database"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	TypeInvestment  = "INVESTMENT"
	TypeYieldPayout = "YIELD_PAYOUT"
)

// Transaction is one row of the combined ledger feed.
type Transaction struct {
	ID          uint             `json:"id"`
	Type        string           `json:"type"`
	Amount      decimal.Decimal  `json:"amount"` // DNR for investments, wei for payouts
	TokenAmount *decimal.Decimal `json:"tokenAmount,omitempty"`
	Property    string           `json:"property"`
	Wallet      string           `json:"wallet"`
	TxHash      *string          `json:"txHash"`
	Status      string           `json:"status"`
	Date        time.Time        `json:"date"`
}

func title(p *models.Property) string {
	if p == nil {
		return ""
	}
	return p.Title
}

// Feed merges investments and yield payouts, newest first.
func Feed() ([]Transaction, error) {
	var investments []models.Investment
	if err := database.DB.Preload("Property").Order("created_at DESC").Find(&investments).Error; err != nil {
		return nil, err
	}
	var payouts []models.YieldPayout
	if err := database.DB.Preload("Property").Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}

	out := make([]Transaction, 0, len(investments)+len(payouts))
	for _, i := range investments {
		i := i
		hash := i.TxHash
		out = append(out, Transaction{
			ID:          i.ID,
			Type:        TypeInvestment,
			Amount:      i.DinarPaid,
			TokenAmount: &i.TokenAmount,
			Property:    title(i.Property),
			Wallet:      i.UserAddress,
			TxHash:      &hash,
			Status:      string(i.Status),
			Date:        i.CreatedAt,
		})
	}
	for _, p := range payouts {
		date := p.DistributionDate
		if date.IsZero() {
			date = p.CreatedAt
		}
		out = append(out, Transaction{
			ID:       p.ID,
			Type:     TypeYieldPayout,
			Amount:   p.AmountDinar,
			Property: title(p.Property),
			Wallet:   p.UserAddress,
			TxHash:   p.TxHash,
			Status:   string(p.Status),
			Date:     date,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.After(out[b].Date)
	})
	return out, nil
}

// GET /api/transactions
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		txs, err := Feed()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch transactions")
		}
		return c.JSON(fiber.Map{"transactions": txs})
	}
}
