package mirror

import (
	"context"
	"net/http"
	"testing"
	"time"

	"aether-backend/internal/chain"
	"aether-backend/internal/chain/chaintest"
	"aether-backend/internal/database"
	"aether-backend/internal/database/dbtest"
	"aether-backend/internal/events"
	"aether-backend/internal/models"
	"aether-backend/internal/web"
	"aether-backend/internal/web/webtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func investment(t *testing.T, user, property, hash string, status models.InvestmentStatus) {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.Investment{
		UserAddress:     user,
		PropertyAddress: property,
		TokenAmount:     decimal.NewFromInt(5),
		DinarPaid:       decimal.NewFromInt(50),
		TxHash:          hash,
		Status:          status,
	}).Error)
}

func statusOf(t *testing.T, hash string) models.InvestmentStatus {
	t.Helper()
	var inv models.Investment
	require.NoError(t, database.DB.First(&inv, "tx_hash = ?", hash).Error)
	return inv.Status
}

func TestReconcileInvestments(t *testing.T) {
	dbtest.Use(t)
	investment(t, "0xAlice", "0xprop", "0xok", models.InvestmentPending)
	investment(t, "0xAlice", "0xprop", "0xbad", models.InvestmentPending)
	investment(t, "0xBob", "0xprop", "0xwait", models.InvestmentPending)
	investment(t, "0xBob", "0xprop", "0xex_123", models.InvestmentPending)

	fake := chaintest.New()
	fake.Statuses["0xok"] = chain.TrxSuccess
	fake.Statuses["0xbad"] = chain.TrxFailed
	fake.Statuses["0xex_123"] = chain.TrxFailed
	rec := &events.Recorder{}

	changed, err := New(fake, rec, time.Minute).ReconcileInvestments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	assert.Equal(t, models.InvestmentConfirmed, statusOf(t, "0xok"))
	assert.Equal(t, models.InvestmentFailed, statusOf(t, "0xbad"))
	assert.Equal(t, models.InvestmentPending, statusOf(t, "0xwait"))
	assert.Equal(t, models.InvestmentPending, statusOf(t, "0xex_123"))
	assert.Equal(t, []string{events.InvestmentConfirmed, events.InvestmentFailed}, rec.Keys())

	// a second pass has nothing left to settle
	changed, err = New(fake, rec, time.Minute).ReconcileInvestments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMirrorBalances(t *testing.T) {
	dbtest.Use(t)
	investment(t, "0xAlice", "0xPropA", "0x1", models.InvestmentConfirmed)
	investment(t, "0xAlice", "0xPropB", "0x2", models.InvestmentConfirmed)
	investment(t, "0xBob", "0xPropA", "0x3", models.InvestmentPending)

	fake := chaintest.New()
	fake.Height = 77
	fake.SetBalance("0xalice", "", 1000)
	fake.SetBalance("0xalice", "0xpropa", 5)
	fake.SetBalance("0xbob", "0xpropa", 7)
	rec := &events.Recorder{}
	m := New(fake, rec, time.Minute)

	require.NoError(t, m.MirrorBalances(context.Background()))

	var balances []models.TokenBalance
	require.NoError(t, database.DB.Order("wallet_address, token_address").Find(&balances).Error)
	require.Len(t, balances, 5)

	assert.Equal(t, "0xalice", balances[0].WalletAddress)
	assert.Equal(t, models.NativeToken, balances[0].TokenAddress)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, uint64(77), balances[0].BlockHeight)
	assert.Equal(t, "0xpropa", balances[1].TokenAddress)
	assert.Equal(t, "0xpropb", balances[2].TokenAddress)
	assert.True(t, balances[2].Balance.IsZero())
	assert.Equal(t, "0xbob", balances[4].WalletAddress)
	assert.True(t, balances[4].Balance.Equal(decimal.NewFromInt(7)))
	assert.Len(t, rec.Keys(), 5)

	// unchanged balances only bump the height
	fake.Height = 78
	fake.SetBalance("0xbob", "0xpropa", 9)
	require.NoError(t, m.MirrorBalances(context.Background()))
	assert.Len(t, rec.Keys(), 6)

	var bob models.TokenBalance
	require.NoError(t, database.DB.First(&bob, "wallet_address = ? AND token_address = ?", "0xbob", "0xpropa").Error)
	assert.True(t, bob.Balance.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, uint64(78), bob.BlockHeight)

	var count int64
	database.DB.Model(&models.TokenBalance{}).Count(&count)
	assert.Equal(t, int64(5), count)
}

func TestRunStopsOnCancel(t *testing.T) {
	dbtest.Use(t)
	investment(t, "0xAlice", "0xprop", "0xok", models.InvestmentPending)

	fake := chaintest.New()
	fake.Statuses["0xok"] = chain.TrxSuccess

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(fake, events.Nop{}, time.Hour).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return statusOf(t, "0xok") == models.InvestmentConfirmed
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mirror did not stop")
	}
}

func TestBalanceHandlers(t *testing.T) {
	dbtest.Use(t)
	require.NoError(t, database.DB.Create(&models.Property{
		Title: "Loft", Symbol: "LFT", Address: "0xPropA", Location: "Porto", Country: "Portugal",
		ValuationUSD: decimal.NewFromInt(1000), TotalSupply: decimal.NewFromInt(1000),
	}).Error)

	fake := chaintest.New()
	fake.SetBalance("0xcarol", "", 42)
	fake.SetBalance("0xcarol", "0xpropa", 3)

	app := web.NewApp()
	app.Get("/balances/:address", ListBalancesHandler())
	app.Post("/balances/:address/refresh", RefreshBalancesHandler(New(fake, events.Nop{}, time.Minute)))

	status, body := webtest.Do(t, app, http.MethodGet, "/balances/0xCAROL", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["balances"])

	status, body = webtest.Do(t, app, http.MethodPost, "/balances/0xCAROL/refresh", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["balances"], 2)

	status, body = webtest.Do(t, app, http.MethodGet, "/balances/0xcarol", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0xcarol", body["address"])
	assert.Len(t, body["balances"], 2)
}
