// Package dashboard aggregates platform activity into chart buckets for the admin panel.
package dashboard

import (
	"strconv"
	"time"

	"aether-backend/internal/chain"
	"aether-backend/internal/database"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type VolumePoint struct {
	Label       string          `json:"label"` // bucket start, YYYY-MM-DD
	Investments decimal.Decimal `json:"investments"`
	Trades      decimal.Decimal `json:"trades"`
	Yield       decimal.Decimal `json:"yield"`
	Total       decimal.Decimal `json:"total"`
}

type VolumeTotals struct {
	Investments decimal.Decimal `json:"investments"`
	Trades      decimal.Decimal `json:"trades"`
	Yield       decimal.Decimal `json:"yield"`
	Total       decimal.Decimal `json:"total"`
}

type VolumeChart struct {
	Period      string        `json:"period"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Points      []VolumePoint `json:"points"`
	GrandTotals VolumeTotals  `json:"grand_totals"`
}

func defaultCount(period string) int {
	switch period {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	default:
		return 7
	}
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(t time.Time, period string) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

func step(t time.Time, period string, n int) time.Time {
	switch period {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7*n)
	case PeriodMonthly:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// Volume builds count consecutive buckets ending with the one containing now.
// Investments count dinar paid for non-failed purchases, trades count
// amount × price of filled orders and yield counts successful payouts in DNR.
func Volume(now time.Time, period string, count int) (VolumeChart, error) {
	last := bucketStart(now, period)
	first := step(last, period, -(count - 1))
	end := step(last, period, 1)

	points := make([]VolumePoint, count)
	for i := range points {
		points[i] = VolumePoint{
			Label:       step(first, period, i).Format("2006-01-02"),
			Investments: decimal.Zero,
			Trades:      decimal.Zero,
			Yield:       decimal.Zero,
		}
	}
	index := func(t time.Time) int {
		b := bucketStart(t.In(now.Location()), period)
		for i := range points {
			if step(first, period, i).Equal(b) {
				return i
			}
		}
		return -1
	}

	var investments []models.Investment
	if err := database.DB.
		Where("created_at >= ? AND created_at < ? AND status <> ?", first, end, models.InvestmentFailed).
		Find(&investments).Error; err != nil {
		return VolumeChart{}, err
	}
	for _, inv := range investments {
		if i := index(inv.CreatedAt); i >= 0 {
			points[i].Investments = points[i].Investments.Add(inv.DinarPaid)
		}
	}

	var orders []models.Order
	if err := database.DB.
		Where("updated_at >= ? AND updated_at < ? AND status = ?", first, end, models.OrderFilled).
		Find(&orders).Error; err != nil {
		return VolumeChart{}, err
	}
	for _, o := range orders {
		if i := index(o.UpdatedAt); i >= 0 {
			points[i].Trades = points[i].Trades.Add(o.FilledAmount.Mul(o.Price))
		}
	}

	var payouts []models.YieldPayout
	if err := database.DB.
		Where("distribution_date >= ? AND distribution_date < ? AND status = ?", first, end, models.PayoutSuccess).
		Find(&payouts).Error; err != nil {
		return VolumeChart{}, err
	}
	for _, p := range payouts {
		if i := index(p.DistributionDate); i >= 0 {
			points[i].Yield = points[i].Yield.Add(chain.FromWei(p.AmountDinar.BigInt()))
		}
	}

	grand := VolumeTotals{Investments: decimal.Zero, Trades: decimal.Zero, Yield: decimal.Zero, Total: decimal.Zero}
	for i := range points {
		p := &points[i]
		p.Total = p.Investments.Add(p.Trades).Add(p.Yield)
		grand.Investments = grand.Investments.Add(p.Investments)
		grand.Trades = grand.Trades.Add(p.Trades)
		grand.Yield = grand.Yield.Add(p.Yield)
		grand.Total = grand.Total.Add(p.Total)
	}

	return VolumeChart{
		Period:      period,
		From:        first.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}, nil
}

// GET /api/properties/admin/chart?period=daily&count=7
func VolumeChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", PeriodDaily)
		switch period {
		case PeriodDaily, PeriodWeekly, PeriodMonthly:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "period must be daily, weekly or monthly")
		}

		count := defaultCount(period)
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
			count = n
		}

		chart, err := Volume(time.Now(), period, count)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Chart data could not be aggregated")
		}
		return c.JSON(chart)
	}
}
