package core

import "fmt"

// Ordering selects how report rows are sorted. It is a closed enum: the two
// values below are the only orderings the ledger contract supports.
type Ordering int

const (
	// OrderByDate sorts rows by creation time.
	OrderByDate Ordering = iota
	// OrderByCategory sorts rows by category name, then amount descending.
	OrderByCategory
)

func (o Ordering) String() string {
	switch o {
	case OrderByDate:
		return "date"
	case OrderByCategory:
		return "category"
	}
	return fmt.Sprintf("Ordering(%d)", int(o))
}

// ReportKind selects one of the three report pipelines.
type ReportKind int

const (
	// ReportList is the itemized view with sequence numbers.
	ReportList ReportKind = iota
	// ReportTotal is the per-category total for the current billing period.
	ReportTotal
	// ReportTrend is the billing-month trend over the group's full history.
	ReportTrend
)

func (k ReportKind) String() string {
	switch k {
	case ReportList:
		return "list"
	case ReportTotal:
		return "total"
	case ReportTrend:
		return "trend"
	}
	return fmt.Sprintf("ReportKind(%d)", int(k))
}

// ReportRequest carries everything a report pipeline needs: who is asking,
// which group, whether to include the whole group or only the caller's own
// expenses, and the row ordering.
type ReportRequest struct {
	User     UserID
	Group    GroupID
	All      bool
	Ordering Ordering
}
