// Package chaintest provides an in-memory chain.Client for tests.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"aether-backend/internal/chain"
)

var ErrRejected = errors.New("transfer rejected")

type Transfer struct {
	To     string
	Amount *big.Int
	Hash   string
}

type Fake struct {
	mu sync.Mutex

	Height   uint64
	Balances map[string]*big.Int // key: address|token
	Statuses map[string]uint8
	Tokens   map[string]chain.TokenInfo
	Reject   map[string]bool // recipients whose transfers fail
	Payout   string

	Transfers []Transfer
}

func New() *Fake {
	return &Fake{
		Balances: map[string]*big.Int{},
		Statuses: map[string]uint8{},
		Tokens:   map[string]chain.TokenInfo{},
		Reject:   map[string]bool{},
		Payout:   "0xpayout",
	}
}

func key(address, token string) string {
	return strings.ToLower(address) + "|" + strings.ToLower(token)
}

func (f *Fake) SetBalance(address, token string, wei int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Balances[key(address, token)] = big.NewInt(wei)
}

func (f *Fake) Balance(_ context.Context, address, token string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.Balances[key(address, token)]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *Fake) Token(_ context.Context, token string) (chain.TokenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.Tokens[token]; ok {
		return t, nil
	}
	return chain.TokenInfo{}, fmt.Errorf("unknown token %s", token)
}

func (f *Fake) TxStatus(_ context.Context, hash string) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.Statuses[hash]; ok {
		return s, nil
	}
	return chain.TrxPending, nil
}

func (f *Fake) BlockHeight(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Height, nil
}

func (f *Fake) Transfer(_ context.Context, to string, amount *big.Int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Reject[to] {
		return "", ErrRejected
	}
	hash := fmt.Sprintf("0xpay%d", len(f.Transfers)+1)
	f.Transfers = append(f.Transfers, Transfer{To: to, Amount: new(big.Int).Set(amount), Hash: hash})
	return hash, nil
}

func (f *Fake) Sent() []Transfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Transfer(nil), f.Transfers...)
}

func (f *Fake) PayoutAddress() string { return f.Payout }

func (f *Fake) Close() {}
