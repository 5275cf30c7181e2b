// Package dashboard computes seller-facing sales metrics over delivered
// orders.
package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Repository provides the aggregate queries the metrics are built from. All
// aggregates are scoped to one seller's DELIVERED orders.
type Repository interface {
	// DeliveredTotalBetween sums order totals created in [from, to).
	DeliveredTotalBetween(ctx context.Context, sellerID string, from, to time.Time) (decimal.Decimal, error)
	// DeliveredOrderCount counts delivered orders.
	DeliveredOrderCount(ctx context.Context, sellerID string) (int, error)
	// RentedQuantity sums line quantities across delivered orders.
	RentedQuantity(ctx context.Context, sellerID string) (int, error)
}

// Summary is the aggregate view shown on the seller dashboard.
type Summary struct {
	// TotalCustomers counts delivered orders.
	TotalCustomers int
	// DailyTotal is today's delivered revenue (UTC day).
	DailyTotal decimal.Decimal
	// GrowthPercent compares this week's delivered revenue to last week's,
	// as a rounded percentage. Zero when last week had no revenue.
	GrowthPercent int
	// BikesInWork counts bikes currently rented out.
	BikesInWork int
}

// Service computes dashboard summaries.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a dashboard Service reading current time from the system
// clock.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summarize runs the aggregate queries concurrently and assembles the
// summary.
func (s *Service) Summarize(ctx context.Context, sellerID string) (*Summary, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// Weeks start on Sunday.
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	var (
		summary       Summary
		thisWeekTotal decimal.Decimal
		lastWeekTotal decimal.Decimal
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.repo.DeliveredOrderCount(ctx, sellerID)
		if err != nil {
			return errors.Wrap(err, "delivered order count")
		}
		summary.TotalCustomers = count
		return nil
	})
	g.Go(func() error {
		total, err := s.repo.DeliveredTotalBetween(ctx, sellerID, today, today.AddDate(0, 0, 1))
		if err != nil {
			return errors.Wrap(err, "daily total")
		}
		summary.DailyTotal = total
		return nil
	})
	g.Go(func() error {
		total, err := s.repo.DeliveredTotalBetween(ctx, sellerID, weekStart, weekStart.AddDate(0, 0, 7))
		if err != nil {
			return errors.Wrap(err, "this week total")
		}
		thisWeekTotal = total
		return nil
	})
	g.Go(func() error {
		total, err := s.repo.DeliveredTotalBetween(ctx, sellerID, lastWeekStart, weekStart)
		if err != nil {
			return errors.Wrap(err, "last week total")
		}
		lastWeekTotal = total
		return nil
	})
	g.Go(func() error {
		qty, err := s.repo.RentedQuantity(ctx, sellerID)
		if err != nil {
			return errors.Wrap(err, "rented quantity")
		}
		summary.BikesInWork = qty
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.GrowthPercent = growthPercent(thisWeekTotal, lastWeekTotal)
	return &summary, nil
}

// growthPercent returns this/last as a rounded percentage, or 0 when last is
// not positive.
func growthPercent(this, last decimal.Decimal) int {
	if !last.IsPositive() {
		return 0
	}
	ratio, _ := this.Div(last).Float64()
	return int(math.Round(ratio * 100))
}
