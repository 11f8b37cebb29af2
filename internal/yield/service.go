// Package yield distributes the monthly rental yield of a property to its
// confirmed investors from the platform payout account.
package yield

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"aether-backend/internal/chain"
	"aether-backend/internal/database"
	"aether-backend/internal/events"
	"aether-backend/internal/metrics"
	"aether-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrInProgress       = errors.New("distribution already running for this property")
	ErrNoSupply         = errors.New("property has no token supply")
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// Summary describes one distribution run.
type Summary struct {
	PropertyAddress string          `json:"propertyAddress"`
	Pool            decimal.Decimal `json:"pool"`
	Investors       int             `json:"investors"`
	Paid            int             `json:"paid"`
	Failed          int             `json:"failed"`
}

type Service struct {
	client chain.Client
	pub    events.Publisher

	mu      sync.Mutex
	running map[string]bool
	ctx     context.Context
	wg      sync.WaitGroup
}

func NewService(client chain.Client, pub events.Publisher) *Service {
	return &Service{
		client:  client,
		pub:     pub,
		running: map[string]bool{},
		ctx:     context.Background(),
	}
}

// MonthlyPool is valuation × yield% / 12, with 1 USD = 1 DNR.
func MonthlyPool(valuationUSD, yieldPercent decimal.Decimal) decimal.Decimal {
	return valuationUSD.Mul(yieldPercent).Div(hundred).Div(monthsPerYear)
}

// Share is the investor's slice of the pool; totalSupplyWei is the token supply in wei.
func Share(pool, tokenAmount, totalSupplyWei decimal.Decimal) decimal.Decimal {
	supply := totalSupplyWei.Shift(-chain.Decimals)
	if !supply.IsPositive() {
		return decimal.Zero
	}
	return pool.Mul(tokenAmount).DivRound(supply, chain.Decimals)
}

func (s *Service) claim(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[address] {
		return false
	}
	s.running[address] = true
	return true
}

func (s *Service) release(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, address)
}

// Distribute pays one property's monthly yield and records every attempt.
func (s *Service) Distribute(ctx context.Context, propertyAddress string) (Summary, error) {
	sum := Summary{PropertyAddress: propertyAddress}

	if !s.claim(propertyAddress) {
		return sum, ErrInProgress
	}
	defer s.release(propertyAddress)

	var property models.Property
	if err := database.DB.Where("address = ?", propertyAddress).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sum, ErrPropertyNotFound
		}
		return sum, fmt.Errorf("load property: %w", err)
	}

	var investments []models.Investment
	if err := database.DB.
		Where("property_address = ? AND status = ?", propertyAddress, models.InvestmentConfirmed).
		Order("id").
		Find(&investments).Error; err != nil {
		return sum, fmt.Errorf("load investments: %w", err)
	}
	sum.Investors = len(investments)
	if len(investments) == 0 {
		log.Printf("No confirmed investments for %s, nothing to distribute", propertyAddress)
		return sum, nil
	}
	if !property.TotalSupply.IsPositive() {
		return sum, ErrNoSupply
	}

	sum.Pool = MonthlyPool(property.ValuationUSD, property.Yield)
	log.Printf("Yield pool for %s (%s): %s DNR", property.Symbol, propertyAddress, sum.Pool.StringFixed(2))

	for _, inv := range investments {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		wei := chain.ToWei(Share(sum.Pool, inv.TokenAmount, property.TotalSupply))
		if wei.Sign() <= 0 {
			continue
		}

		payout := models.YieldPayout{
			PropertyAddress:  propertyAddress,
			UserAddress:      inv.UserAddress,
			AmountDinar:      decimal.NewFromBigInt(wei, 0),
			DistributionDate: time.Now(),
			Status:           models.PayoutSuccess,
		}

		hash, err := s.client.Transfer(ctx, inv.UserAddress, wei)
		if err != nil {
			log.Printf("Yield payout to %s failed: %v", inv.UserAddress, err)
			payout.Status = models.PayoutFailed
			sum.Failed++
		} else {
			log.Printf("Yield payout %s wei to %s: %s", wei, inv.UserAddress, hash)
			payout.TxHash = &hash
			sum.Paid++
		}

		if err := database.DB.Create(&payout).Error; err != nil {
			log.Printf("Yield payout record for %s not saved: %v", inv.UserAddress, err)
		}

		metrics.YieldPayouts.WithLabelValues(string(payout.Status)).Inc()
		key := events.YieldPaid
		if payout.Status == models.PayoutFailed {
			key = events.YieldFailed
		}
		events.Emit(s.pub, key, payout)
	}

	log.Printf("Yield distribution for %s done: %d paid, %d failed", propertyAddress, sum.Paid, sum.Failed)
	return sum, nil
}

// DistributeAll runs Distribute for every property that has a contract address.
func (s *Service) DistributeAll(ctx context.Context) ([]Summary, error) {
	var addresses []string
	if err := database.DB.Model(&models.Property{}).
		Where("address <> ''").
		Order("id").
		Pluck("address", &addresses).Error; err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	out := make([]Summary, 0, len(addresses))
	for _, addr := range addresses {
		sum, err := s.Distribute(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Printf("Yield distribution for %s skipped: %v", addr, err)
			continue
		}
		out = append(out, sum)
	}
	return out, nil
}

// Bind sets the context background runs are tied to.
func (s *Service) Bind(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *Service) background() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// DistributeAsync starts a distribution and returns immediately.
func (s *Service) DistributeAsync(propertyAddress string) {
	ctx := s.background()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Distribute(ctx, propertyAddress); err != nil {
			log.Printf("Yield distribution for %s: %v", propertyAddress, err)
		}
	}()
}

func (s *Service) DistributeAllAsync() {
	ctx := s.background()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.DistributeAll(ctx); err != nil {
			log.Printf("Global yield distribution: %v", err)
		}
	}()
}

// Wait blocks until background distributions finish.
func (s *Service) Wait() {
	s.wg.Wait()
}
