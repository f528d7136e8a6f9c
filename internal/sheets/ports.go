// Package sheets defines the export port used by the summary worker and
// hosts its Google Sheets implementation.
package sheets

import (
	"context"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

// SummaryWriter exports one owner's monthly summary to an external sheet.
// Writes are idempotent per (owner, year, month): re-exporting the same
// month overwrites the previous row.
type SummaryWriter interface {
	WriteMonthlySummary(ctx context.Context, ownerID int64, summary core.MonthlySummary) error
}
