package market

import (
	"errors"
	"fmt"
	"strings"

	"aether-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotOpen       = errors.New("order not found or already filled")
	ErrInsufficientTokens = errors.New("seller does not have enough tokens")
)

// SyntheticTxHash tags investments created by an off-chain fill.
func SyntheticTxHash() string {
	return models.SyntheticTxPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func holding(tx *gorm.DB, user, property string) (models.Investment, error) {
	var inv models.Investment
	err := tx.Where("LOWER(user_address) = ? AND LOWER(property_address) = ?",
		strings.ToLower(user), strings.ToLower(property)).
		Order("id").
		First(&inv).Error
	return inv, err
}

// Execute fills an OPEN order against the taker in a single transaction.
// The order's full amount moves from the selling side's investment to the
// buying side's, and the buyer's dinar paid grows by amount × price.
func Execute(db *gorm.DB, orderID uint, takerAddress string) (models.Order, error) {
	var order models.Order
	takerAddress = strings.ToLower(strings.TrimSpace(takerAddress))

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotOpen
			}
			return err
		}
		if order.Status != models.OrderOpen {
			return ErrOrderNotOpen
		}

		// Claim the order first so a concurrent fill finds it taken.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderOpen).
			Updates(map[string]interface{}{
				"status":        models.OrderFilled,
				"filled_amount": order.Amount,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotOpen
		}

		seller, buyer := order.UserAddress, takerAddress
		if order.Type == models.OrderBuy {
			seller, buyer = takerAddress, order.UserAddress
		}

		sellerInv, err := holding(tx, seller, order.PropertyAddress)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientTokens
		}
		if err != nil {
			return err
		}
		if sellerInv.TokenAmount.LessThan(order.Amount) {
			return ErrInsufficientTokens
		}
		if err := tx.Model(&sellerInv).
			Update("token_amount", sellerInv.TokenAmount.Sub(order.Amount)).Error; err != nil {
			return fmt.Errorf("debit seller: %w", err)
		}

		buyerInv, err := holding(tx, buyer, order.PropertyAddress)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			buyerInv = models.Investment{
				UserAddress:     buyer,
				PropertyAddress: sellerInv.PropertyAddress,
				TokenAmount:     decimal.Zero,
				DinarPaid:       decimal.Zero,
				TxHash:          SyntheticTxHash(),
				Status:          models.InvestmentConfirmed,
			}
			if err := tx.Create(&buyerInv).Error; err != nil {
				return fmt.Errorf("open buyer position: %w", err)
			}
		case err != nil:
			return err
		}

		if err := tx.Model(&buyerInv).Updates(map[string]interface{}{
			"token_amount": buyerInv.TokenAmount.Add(order.Amount),
			"dinar_paid":   buyerInv.DinarPaid.Add(order.Amount.Mul(order.Price)),
		}).Error; err != nil {
			return fmt.Errorf("credit buyer: %w", err)
		}

		order.Status = models.OrderFilled
		order.FilledAmount = order.Amount
		return nil
	})
	return order, err
}
