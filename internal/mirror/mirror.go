// Package mirror keeps the database in step with the chain: it settles
// pending investments from their receipts and copies wallet balances.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"aether-backend/internal/chain"
	"aether-backend/internal/database"
	"aether-backend/internal/events"
	"aether-backend/internal/metrics"
	"aether-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Mirror struct {
	client   chain.Client
	pub      events.Publisher
	interval time.Duration
}

func New(client chain.Client, pub events.Publisher, interval time.Duration) *Mirror {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Mirror{client: client, pub: pub, interval: interval}
}

// Run syncs immediately and then on every tick until ctx is cancelled.
func (m *Mirror) Run(ctx context.Context) {
	log.Printf("Chain mirror started, interval %s", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.SyncOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Chain mirror pass failed: %v", err)
		}
		select {
		case <-ctx.Done():
			log.Println("Chain mirror stopped")
			return
		case <-ticker.C:
		}
	}
}

func (m *Mirror) SyncOnce(ctx context.Context) error {
	if _, err := m.ReconcileInvestments(ctx); err != nil {
		return err
	}
	if err := m.MirrorBalances(ctx); err != nil {
		return err
	}
	metrics.MirrorLastSync.SetToCurrentTime()
	return nil
}

// ReconcileInvestments settles PENDING investments whose transaction has a
// final receipt. Trades recorded off-chain are skipped.
func (m *Mirror) ReconcileInvestments(ctx context.Context) (int, error) {
	var pending []models.Investment
	if err := database.DB.
		Where("status = ? AND tx_hash NOT LIKE ?", models.InvestmentPending, models.SyntheticTxPrefix+"%").
		Order("id").
		Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("load pending investments: %w", err)
	}

	changed := 0
	for _, inv := range pending {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		status, err := m.client.TxStatus(ctx, inv.TxHash)
		if err != nil {
			metrics.MirrorErrors.Inc()
			log.Printf("Receipt for %s unavailable: %v", inv.TxHash, err)
			continue
		}

		var next models.InvestmentStatus
		var key string
		switch status {
		case chain.TrxSuccess:
			next, key = models.InvestmentConfirmed, events.InvestmentConfirmed
		case chain.TrxFailed:
			next, key = models.InvestmentFailed, events.InvestmentFailed
		default:
			continue
		}

		// Only move rows that are still pending; a concurrent writer wins.
		res := database.DB.Model(&models.Investment{}).
			Where("id = ? AND status = ?", inv.ID, models.InvestmentPending).
			Update("status", next)
		if res.Error != nil {
			return changed, fmt.Errorf("update investment %d: %w", inv.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		changed++
		inv.Status = next
		log.Printf("Investment %s is now %s", inv.TxHash, next)
		metrics.InvestmentsReconciled.WithLabelValues(string(next)).Inc()
		events.Emit(m.pub, key, inv)
	}
	return changed, nil
}

// MirrorBalances refreshes the native balance of every investor and the
// balance of each property token they invested in.
func (m *Mirror) MirrorBalances(ctx context.Context) error {
	var rows []struct {
		UserAddress     string
		PropertyAddress string
	}
	if err := database.DB.Model(&models.Investment{}).
		Distinct("user_address", "property_address").
		Order("user_address").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load investors: %w", err)
	}

	tokens := map[string][]string{}
	var order []string
	for _, r := range rows {
		addr := strings.ToLower(r.UserAddress)
		if _, ok := tokens[addr]; !ok {
			order = append(order, addr)
			tokens[addr] = []string{models.NativeToken}
		}
		tokens[addr] = append(tokens[addr], r.PropertyAddress)
	}

	height := m.height(ctx)
	for _, addr := range order {
		if _, err := m.SyncWallet(ctx, addr, tokens[addr], height); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Balances of %s not mirrored: %v", addr, err)
		}
	}
	return nil
}

func (m *Mirror) height(ctx context.Context) uint64 {
	h, err := m.client.BlockHeight(ctx)
	if err != nil {
		metrics.MirrorErrors.Inc()
		log.Printf("Block height unavailable: %v", err)
		return 0
	}
	return h
}

// SyncWallet reads each token balance of address from the chain and stores it.
func (m *Mirror) SyncWallet(ctx context.Context, address string, tokens []string, height uint64) ([]models.TokenBalance, error) {
	address = strings.ToLower(address)
	out := make([]models.TokenBalance, 0, len(tokens))

	for _, token := range tokens {
		wei, err := m.client.Balance(ctx, address, token)
		if err != nil {
			metrics.MirrorErrors.Inc()
			return out, fmt.Errorf("balance of %s in %q: %w", address, token, err)
		}

		tb, err := m.store(address, strings.ToLower(token), decimal.NewFromBigInt(wei, 0), height)
		if err != nil {
			return out, err
		}
		out = append(out, tb)
	}
	return out, nil
}

func (m *Mirror) store(address, token string, balance decimal.Decimal, height uint64) (models.TokenBalance, error) {
	now := time.Now()

	var tb models.TokenBalance
	err := database.DB.Where("wallet_address = ? AND token_address = ?", address, token).First(&tb).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		tb = models.TokenBalance{
			WalletAddress: address,
			TokenAddress:  token,
			Balance:       balance,
			BlockHeight:   height,
			CheckedAt:     now,
		}
		if err := database.DB.Create(&tb).Error; err != nil {
			return tb, fmt.Errorf("save balance: %w", err)
		}
		m.changed(tb)
		return tb, nil
	case err != nil:
		return tb, fmt.Errorf("load balance: %w", err)
	}

	changed := !tb.Balance.Equal(balance)
	if err := database.DB.Model(&tb).Updates(map[string]interface{}{
		"balance":      balance,
		"block_height": height,
		"checked_at":   now,
	}).Error; err != nil {
		return tb, fmt.Errorf("update balance: %w", err)
	}
	tb.Balance, tb.BlockHeight, tb.CheckedAt = balance, height, now
	if changed {
		m.changed(tb)
	}
	return tb, nil
}

func (m *Mirror) changed(tb models.TokenBalance) {
	metrics.BalancesMirrored.Inc()
	events.Emit(m.pub, events.BalanceUpdated, tb)
}
