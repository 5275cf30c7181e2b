package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	totalsByWindow map[time.Time]decimal.Decimal // keyed by window start
	orderCount     int
	rentedQty      int
}

func (m *mockRepo) DeliveredTotalBetween(_ context.Context, _ string, from, _ time.Time) (decimal.Decimal, error) {
	return m.totalsByWindow[from], nil
}

func (m *mockRepo) DeliveredOrderCount(_ context.Context, _ string) (int, error) {
	return m.orderCount, nil
}

func (m *mockRepo) RentedQuantity(_ context.Context, _ string) (int, error) {
	return m.rentedQty, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Wednesday 2026-01-07 12:00 UTC; week starts Sunday 2026-01-04.
var testNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestSummarize(t *testing.T) {
	today := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	weekStart := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	lastWeekStart := time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)

	repo := &mockRepo{
		totalsByWindow: map[time.Time]decimal.Decimal{
			today:         d("440"),
			weekStart:     d("1500"),
			lastWeekStart: d("1000"),
		},
		orderCount: 12,
		rentedQty:  7,
	}

	summary, err := newTestService(repo).Summarize(context.Background(), "seller-1")
	require.NoError(t, err)

	assert.Equal(t, 12, summary.TotalCustomers)
	assert.True(t, summary.DailyTotal.Equal(d("440")), "daily total = %s", summary.DailyTotal)
	assert.Equal(t, 150, summary.GrowthPercent)
	assert.Equal(t, 7, summary.BikesInWork)
}

func TestSummarize_NoRevenueLastWeek(t *testing.T) {
	repo := &mockRepo{
		totalsByWindow: map[time.Time]decimal.Decimal{
			time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC): d("900"),
		},
	}

	summary, err := newTestService(repo).Summarize(context.Background(), "seller-1")
	require.NoError(t, err)

	// No division by zero: growth reads as flat until a baseline exists.
	assert.Equal(t, 0, summary.GrowthPercent)
}

func TestGrowthPercent_Rounds(t *testing.T) {
	assert.Equal(t, 67, growthPercent(d("200"), d("300")))
	assert.Equal(t, 100, growthPercent(d("300"), d("300")))
	assert.Equal(t, 0, growthPercent(d("0"), d("300")))
}
