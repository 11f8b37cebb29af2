package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"aether-backend/internal/config"

	"github.com/tarancss/ethcli"
	"github.com/tarancss/hd"
)

// EthClient implements Client over ethcli with the payout key derived from an HD seed.
type EthClient struct {
	mu     sync.Mutex
	c      *ethcli.EthCli
	dryRun bool

	payoutAddr string
	payoutKey  string
}

func Dial(cfg *config.Config) (*EthClient, error) {
	c := ethcli.Init(cfg.RPCURL, cfg.RPCSecret)
	if c == nil {
		return nil, fmt.Errorf("cannot connect to chain node %s", cfg.RPCURL)
	}
	e := &EthClient{c: c, dryRun: cfg.PayoutDryRun}

	if cfg.HDSeed != "" {
		addr, key, err := PayoutAccount(cfg.HDSeed)
		if err != nil {
			c.End()
			return nil, err
		}
		e.payoutAddr, e.payoutKey = addr, key
		log.Printf("Payout account: %s", addr)
	}
	return e, nil
}

// PayoutAccount derives wallet 0, external chain, index 0 of the HD seed.
func PayoutAccount(seedHex string) (address, key string, err error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return "", "", fmt.Errorf("decode HD seed: %w", err)
	}
	w, err := hd.Init(seed)
	if err != nil {
		return "", "", fmt.Errorf("init HD wallet: %w", err)
	}
	addr, k, _, err := w.Address(0, hd.External, 0)
	if err != nil {
		return "", "", fmt.Errorf("derive payout address: %w", err)
	}
	return "0x" + hex.EncodeToString(addr), hex.EncodeToString(k), nil
}

func (e *EthClient) Close() {
	e.c.End()
}

func (e *EthClient) PayoutAddress() string {
	return e.payoutAddr
}

func (e *EthClient) Balance(ctx context.Context, address, token string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ethBal, tokBal, err := e.c.GetBalance(address, token)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", address, err)
	}
	if token == "" {
		return ethBal, nil
	}
	return tokBal, nil
}

func (e *EthClient) Token(ctx context.Context, token string) (t TokenInfo, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t.Address = token
	if t.Name, err = e.c.GetTokenName(token); err != nil {
		return
	}
	if t.Symbol, err = e.c.GetTokenSymbol(token); err != nil {
		return
	}
	t.Decimals, err = e.c.GetTokenDecimals(token)
	return
}

// TxStatus reports TrxPending while the node has no receipt for hash.
func (e *EthClient) TxStatus(ctx context.Context, hash string) (uint8, error) {
	if err := ctx.Err(); err != nil {
		return TrxPending, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	trx, err := e.c.GetTrx(hash)
	if errors.Is(err, ethcli.ErrNoTrx) {
		return TrxPending, nil
	}
	if err != nil {
		return TrxPending, fmt.Errorf("get trx %s: %w", hash, err)
	}
	return trx.Status, nil
}

func (e *EthClient) Transfer(ctx context.Context, to string, amount *big.Int) (string, error) {
	if e.payoutKey == "" {
		return "", ErrNoPayoutAccount
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_, _, hash, err := e.c.SendTrx(e.payoutAddr, to, "", HexAmount(amount), nil, e.payoutKey, 0, e.dryRun)
	if err != nil {
		return "", fmt.Errorf("transfer %s wei to %s: %w", amount, to, err)
	}
	return "0x" + hex.EncodeToString(hash), nil
}

// BlockHeight issues eth_blockNumber over the same authenticated client.
func (e *EthClient) BlockHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var res string
	if err := e.c.Call("eth_blockNumber", []interface{}{}, &res); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return ParseQuantity(res)
}

// ParseQuantity decodes a 0x-prefixed hex quantity.
func ParseQuantity(s string) (uint64, error) {
	if !strings.HasPrefix(s, "0x") || len(s) < 3 {
		return 0, fmt.Errorf("quantity %q: %w", s, ErrBadRPCResponse)
	}
	return strconv.ParseUint(s[2:], 16, 64)
}
