package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"aether-backend/internal/chain"
	"aether-backend/internal/chain/chaintest"
	"aether-backend/internal/config"
	"aether-backend/internal/database"
	"aether-backend/internal/database/dbtest"
	"aether-backend/internal/models"
	"aether-backend/internal/property"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T, fake *chaintest.Fake) *Env {
	t.Helper()
	dbtest.Use(t)
	return &Env{
		Config:    &config.Config{},
		OpenDB:    func() error { return nil },
		DialChain: func() (chain.Client, error) { return fake, nil },
	}
}

func run(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(env)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedAndListProperties(t *testing.T) {
	env := testEnv(t, chaintest.New())

	out, err := run(t, env, "seed", "properties")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 new properties")

	out, err = run(t, env, "seed", "properties")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 new properties")

	out, err = run(t, env, "properties", "count")
	require.NoError(t, err)
	assert.Equal(t, "3 properties\n", out)

	out, err = run(t, env, "properties", "list")
	require.NoError(t, err)
	for _, p := range property.Catalogue {
		assert.Contains(t, out, p.Symbol)
	}
}

func TestSetSeller(t *testing.T) {
	env := testEnv(t, chaintest.New())
	_, err := property.Seed(database.DB)
	require.NoError(t, err)

	out, err := run(t, env, "properties", "set-seller", "0xSELLER", "--symbol", "mvc")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated seller of 1 properties")

	var mvc models.Property
	require.NoError(t, database.DB.Where("symbol = ?", "MVC").First(&mvc).Error)
	assert.Equal(t, "0xseller", mvc.SellerAddress)

	out, err = run(t, env, "properties", "set-seller", "0xplatform")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated seller of 3 properties")

	_, err = run(t, env, "properties", "set-seller")
	assert.Error(t, err)
}

func TestBalanceAndTx(t *testing.T) {
	fake := chaintest.New()
	fake.SetBalance("0xabc", "", 1500000000000000000)
	fake.Tokens["0xtok"] = chain.TokenInfo{Address: "0xtok", Symbol: "MVC", Decimals: 18}
	fake.SetBalance("0xabc", "0xtok", 2000000000000000000)
	fake.Statuses["0xdone"] = chain.TrxSuccess
	env := testEnv(t, fake)

	out, err := run(t, env, "balance", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Balance of 0xabc: 1.5 DNR\n", out)

	out, err = run(t, env, "balance", "0xabc", "--token", "0xtok")
	require.NoError(t, err)
	assert.Equal(t, "Balance of 0xabc: 2 MVC\n", out)

	out, err = run(t, env, "tx", "0xdone")
	require.NoError(t, err)
	assert.Equal(t, "0xdone SUCCESS\n", out)

	out, err = run(t, env, "tx", "0xunknown")
	require.NoError(t, err)
	assert.Equal(t, "0xunknown PENDING\n", out)
}

func TestLedger(t *testing.T) {
	fake := chaintest.New()
	env := testEnv(t, fake)
	env.Config.PlatformAddress = "0xplatform"
	require.NoError(t, database.DB.Create(&models.Property{
		Title: "Tivat Villa", Symbol: "TVL", Address: "0xtvl", Location: "Tivat", Country: "Montenegro",
		ValuationUSD: decimal.NewFromInt(100), TotalSupply: decimal.NewFromInt(100),
	}).Error)
	require.NoError(t, database.DB.Create(&models.Property{
		Title: "Kotor Flat", Symbol: "KTF", Address: "0xktf", Location: "Kotor", Country: "Montenegro",
		ValuationUSD: decimal.NewFromInt(100), TotalSupply: decimal.NewFromInt(100),
	}).Error)
	fake.SetBalance("0xplatform", "0xtvl", 3000000000000000000)

	out, err := run(t, env, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform wallet: 0xplatform")
	assert.Regexp(t, `TVL\s+0xtvl\s+3\s+READY`, out)
	assert.Regexp(t, `KTF\s+0xktf\s+0\s+EMPTY`, out)

	// falls back to the payout account
	env.Config.PlatformAddress = ""
	out, err = run(t, env, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform wallet: 0xpayout")
}

func TestYieldDistribute(t *testing.T) {
	fake := chaintest.New()
	env := testEnv(t, fake)
	require.NoError(t, database.DB.Create(&models.Property{
		Title: "Budva Suite", Symbol: "ACS", Address: "0xacs", Location: "Budva", Country: "Montenegro",
		ValuationUSD: decimal.NewFromInt(120), TotalSupply: decimal.RequireFromString("100000000000000000000"),
		Yield: decimal.NewFromInt(5),
	}).Error)
	require.NoError(t, database.DB.Create(&models.Investment{
		UserAddress: "0xalice", PropertyAddress: "0xacs", TokenAmount: decimal.NewFromInt(50),
		DinarPaid: decimal.NewFromInt(60), TxHash: "0x1", Status: models.InvestmentConfirmed,
	}).Error)

	_, err := run(t, env, "yield", "distribute")
	assert.Error(t, err)
	_, err = run(t, env, "yield", "distribute", "--all", "--property", "0xacs")
	assert.Error(t, err)

	out, err := run(t, env, "yield", "distribute", "--property", "0xacs")
	require.NoError(t, err)
	assert.Regexp(t, `0xacs\s+0.50\s+1\s+1\s+0`, out)
	require.Len(t, fake.Sent(), 1)
	assert.Equal(t, "0xalice", fake.Sent()[0].To)

	out, err = run(t, env, "yield", "distribute", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "0xacs")
	assert.Len(t, fake.Sent(), 2)
}

func TestWallet(t *testing.T) {
	env := testEnv(t, chaintest.New())

	_, err := run(t, env, "wallet")
	assert.ErrorIs(t, err, chain.ErrNoPayoutAccount)

	env.Config.HDSeed = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	out, err := run(t, env, "wallet")
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]{40}\n$`, out)
}

func TestChainDialFailure(t *testing.T) {
	env := testEnv(t, nil)
	env.DialChain = func() (chain.Client, error) { return nil, errors.New("connection refused") }

	_, err := run(t, env, "tx", "0x1")
	assert.ErrorContains(t, err, "dial chain node")
}
