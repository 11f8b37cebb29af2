package yield

import (
	"context"
	"net/http"
	"testing"

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

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthlyPoolAndShare(t *testing.T) {
	pool := MonthlyPool(d("1200"), d("5"))
	assert.True(t, pool.Equal(d("5")), pool.String())

	// 40 of 100 tokens
	share := Share(pool, d("40"), d("100000000000000000000"))
	assert.True(t, share.Equal(d("2")), share.String())

	assert.True(t, Share(pool, d("40"), decimal.Zero).IsZero())
}

func TestShareKeepsWeiPrecision(t *testing.T) {
	// 1 of 7500 tokens in a 3625 DNR pool
	share := Share(d("3625"), d("1"), d("7500000000000000000000"))
	assert.Equal(t, "483333333333333333", chain.ToWei(share).String())
}

func seed(t *testing.T) {
	t.Helper()
	p := models.Property{
		Title: "Budva Suite", Symbol: "ACS", Address: "0xacs",
		Location: "Budva, Montenegro", Country: "Montenegro",
		ValuationUSD: d("120"), TotalSupply: d("100000000000000000000"), Yield: d("5"),
	}
	require.NoError(t, database.DB.Create(&p).Error)

	for _, inv := range []models.Investment{
		{UserAddress: "0xalice", PropertyAddress: "0xacs", TokenAmount: d("40"), DinarPaid: d("48"), TxHash: "0x1", Status: models.InvestmentConfirmed},
		{UserAddress: "0xbob", PropertyAddress: "0xacs", TokenAmount: d("60"), DinarPaid: d("72"), TxHash: "0x2", Status: models.InvestmentConfirmed},
		{UserAddress: "0xcarol", PropertyAddress: "0xacs", TokenAmount: d("10"), DinarPaid: d("12"), TxHash: "0x3", Status: models.InvestmentPending},
	} {
		inv := inv
		require.NoError(t, database.DB.Create(&inv).Error)
	}
}

func TestDistributePaysConfirmedInvestors(t *testing.T) {
	dbtest.Use(t)
	seed(t)

	fake := chaintest.New()
	fake.Reject["0xbob"] = true
	rec := &events.Recorder{}

	sum, err := NewService(fake, rec).Distribute(context.Background(), "0xacs")
	require.NoError(t, err)

	// pool 0.5 DNR: alice 40% = 0.2, bob 60% = 0.3
	assert.True(t, sum.Pool.Equal(d("0.5")))
	assert.Equal(t, 2, sum.Investors)
	assert.Equal(t, 1, sum.Paid)
	assert.Equal(t, 1, sum.Failed)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "0xalice", sent[0].To)
	assert.Equal(t, "200000000000000000", sent[0].Amount.String())

	var payouts []models.YieldPayout
	require.NoError(t, database.DB.Order("id").Find(&payouts).Error)
	require.Len(t, payouts, 2)

	assert.Equal(t, "0xalice", payouts[0].UserAddress)
	assert.Equal(t, models.PayoutSuccess, payouts[0].Status)
	require.NotNil(t, payouts[0].TxHash)
	assert.Equal(t, sent[0].Hash, *payouts[0].TxHash)
	assert.True(t, payouts[0].AmountDinar.Equal(d("200000000000000000")))

	assert.Equal(t, "0xbob", payouts[1].UserAddress)
	assert.Equal(t, models.PayoutFailed, payouts[1].Status)
	assert.Nil(t, payouts[1].TxHash)
	assert.True(t, payouts[1].AmountDinar.Equal(d("300000000000000000")))

	assert.Equal(t, []string{events.YieldPaid, events.YieldFailed}, rec.Keys())
}

func TestDistributeNothingToPay(t *testing.T) {
	dbtest.Use(t)
	fake := chaintest.New()
	svc := NewService(fake, events.Nop{})

	_, err := svc.Distribute(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	require.NoError(t, database.DB.Create(&models.Property{
		Title: "Empty", Symbol: "EMP", Address: "0xemp", Location: "Athens", Country: "Greece",
		ValuationUSD: d("1000"), TotalSupply: d("1000000000000000000"), Yield: d("6"),
	}).Error)

	sum, err := svc.Distribute(context.Background(), "0xemp")
	require.NoError(t, err)
	assert.Zero(t, sum.Investors)
	assert.Empty(t, fake.Sent())
}

func TestDistributeRejectsConcurrentRun(t *testing.T) {
	svc := NewService(chaintest.New(), events.Nop{})
	require.True(t, svc.claim("0xacs"))
	defer svc.release("0xacs")

	_, err := svc.Distribute(context.Background(), "0xacs")
	assert.ErrorIs(t, err, ErrInProgress)
}

func TestDistributeAll(t *testing.T) {
	dbtest.Use(t)
	seed(t)

	fake := chaintest.New()
	sums, err := NewService(fake, events.Nop{}).DistributeAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, 2, sums[0].Paid)
	assert.Len(t, fake.Sent(), 2)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	_, err := NewService(chaintest.New(), events.Nop{}).Schedule(context.Background(), "every tuesday")
	assert.Error(t, err)
}

func TestScheduleStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := NewService(chaintest.New(), events.Nop{}).Schedule(ctx, "0 0 1 * *")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	cancel()
}

type recordingDistributor struct {
	addresses []string
	all       int
}

func (r *recordingDistributor) DistributeAsync(a string) { r.addresses = append(r.addresses, a) }
func (r *recordingDistributor) DistributeAllAsync()      { r.all++ }

func TestHandlers(t *testing.T) {
	rd := &recordingDistributor{}
	app := web.NewApp()
	app.Post("/yield-distribute", DistributeHandler(rd))
	app.Post("/yield-distribute-all", DistributeAllHandler(rd))

	status, body := webtest.Do(t, app, http.MethodPost, "/yield-distribute", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "propertyAddress is required", body["error"])

	status, _ = webtest.Do(t, app, http.MethodPost, "/yield-distribute", map[string]string{"propertyAddress": "0xacs"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"0xacs"}, rd.addresses)

	status, _ = webtest.Do(t, app, http.MethodPost, "/yield-distribute-all", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, rd.all)
}

func TestDistributeAsyncWaits(t *testing.T) {
	dbtest.Use(t)
	seed(t)

	fake := chaintest.New()
	svc := NewService(fake, events.Nop{})
	svc.DistributeAsync("0xacs")
	svc.Wait()
	assert.Len(t, fake.Sent(), 2)
}
