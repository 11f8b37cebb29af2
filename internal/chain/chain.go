// Package chain talks JSON-RPC to the DNR chain node: balances, token metadata,
// receipts, block height and payouts from the platform's HD account.
package chain

import (
	"context"
	"errors"
	"math/big"
)

// Transaction status as reported by the node.
const (
	TrxPending uint8 = 0
	TrxFailed  uint8 = 1
	TrxSuccess uint8 = 2
)

var (
	ErrNoPayoutAccount = errors.New("payout account not configured")
	ErrBadRPCResponse  = errors.New("unexpected rpc response")
)

type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint64 `json:"decimals"`
}

// Client is what the rest of the backend needs from the chain node.
// An empty token means the native DNR coin.
type Client interface {
	Balance(ctx context.Context, address, token string) (*big.Int, error)
	Token(ctx context.Context, token string) (TokenInfo, error)
	TxStatus(ctx context.Context, hash string) (uint8, error)
	BlockHeight(ctx context.Context) (uint64, error)
	// Transfer sends amount wei of the native coin from the payout account.
	Transfer(ctx context.Context, to string, amount *big.Int) (string, error)
	PayoutAddress() string
	Close()
}
