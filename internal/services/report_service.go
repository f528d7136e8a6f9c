package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/cache"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

const (
	reportCacheSize = 256
	reportCacheTTL  = 30 * time.Second
)

// ReportService serves read-only monthly aggregations. Combined reports are
// cached per (owner, year, month) with a short TTL; the lifecycle
// coordinator invalidates months it mutates.
type ReportService struct {
	store Store
	cache *cache.LRUCache[core.MonthlyReport]
}

func NewReportService(store Store) *ReportService {
	return &ReportService{
		store: store,
		cache: cache.NewLRUCache[core.MonthlyReport](reportCacheSize, reportCacheTTL),
	}
}

// MonthlySummary returns total income, total expense and their difference
// for the month.
func (s *ReportService) MonthlySummary(ctx context.Context, ownerID int64, year, month int) (core.MonthlySummary, error) {
	if err := validateMonth(year, month); err != nil {
		return core.MonthlySummary{}, err
	}
	return s.store.MonthlySummary(ctx, ownerID, year, month)
}

// CategorySpending returns the month's expenses broken down by category
// with each category's percentage of the total.
func (s *ReportService) CategorySpending(ctx context.Context, ownerID int64, year, month int) (core.CategorySpending, error) {
	if err := validateMonth(year, month); err != nil {
		return core.CategorySpending{}, err
	}
	return s.store.CategorySpending(ctx, ownerID, year, month)
}

// MonthlyReport fetches summary and spending breakdown concurrently and
// caches the combined result.
func (s *ReportService) MonthlyReport(ctx context.Context, ownerID int64, year, month int) (core.MonthlyReport, error) {
	if err := validateMonth(year, month); err != nil {
		return core.MonthlyReport{}, err
	}

	key := reportKey(ownerID, year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	var report core.MonthlyReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.store.MonthlySummary(gctx, ownerID, year, month)
		if err != nil {
			return fmt.Errorf("monthly summary: %w", err)
		}
		report.Summary = summary
		return nil
	})
	g.Go(func() error {
		spending, err := s.store.CategorySpending(gctx, ownerID, year, month)
		if err != nil {
			return fmt.Errorf("category spending: %w", err)
		}
		report.Spending = spending
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyReport{}, err
	}

	s.cache.Set(key, report)
	return report, nil
}

// InvalidateMonth implements ReportInvalidator.
func (s *ReportService) InvalidateMonth(ownerID int64, year, month int) {
	s.cache.Delete(reportKey(ownerID, year, month))
}

// InvalidateOwner drops every cached month of one owner. Account deletion
// cascades to transactions of unknown months, so everything goes.
func (s *ReportService) InvalidateOwner(ownerID int64) {
	prefix := fmt.Sprintf("%d/", ownerID)
	s.cache.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

func reportKey(ownerID int64, year, month int) string {
	return fmt.Sprintf("%d/%04d-%02d", ownerID, year, month)
}

func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return core.ErrInvalidMonth
	}
	if year < 1 {
		return core.ErrInvalidMonth
	}
	return nil
}
