// Package storage provides the durable entity store behind the services
// layer, with interchangeable SQLite and Postgres implementations. Amounts
// are stored as integer cents; balances are only written inside the unit of
// work that also writes the transaction row.
package storage

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// monthRange returns the first day of the month and the first day of the
// following month, both midnight UTC.
func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// dedupeSorted returns the distinct ids in ascending order. Locking in a
// stable order keeps concurrent cross-account moves from deadlocking.
func dedupeSorted(ids []int64) []int64 {
	sorted := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}
