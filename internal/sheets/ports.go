package sheets

import (
	"context"
	"strconv"

	"subtrack/internal/core"
)

// Columns is the header of the mirror sheet, in write order.
var Columns = []string{"id", "owner", "name", "cost", "cadence", "start", "renewal", "monthly", "yearly"}

// Ports for outbound adapters.
type (
	// SubscriptionMirror keeps one row per subscription keyed by id in column A.
	SubscriptionMirror interface {
		// Upsert overwrites the row for s.ID, appending when none exists.
		Upsert(ctx context.Context, s core.Subscription) (rowRef string, err error)
		// Delete removes the row for id. A missing row is not an error.
		Delete(ctx context.Context, id int64) error
	}
)

// RowValues renders s in Columns order.
func RowValues(s core.Subscription) []string {
	return []string{
		strconv.FormatInt(s.ID, 10),
		strconv.FormatInt(s.OwnerID, 10),
		s.Name,
		s.Cost.String(),
		s.RenewalType.String(),
		s.SubscriptionDate.String(),
		s.RenewalDate().String(),
		s.MonthlyCost().String(),
		s.YearlyCost().String(),
	}
}
