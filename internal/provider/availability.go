package provider

import (
	"time"

	"github.com/spf13/cast"
)

// Status is the lending state of one publication.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusWaitlisted  Status = "waitlisted"
	StatusUnavailable Status = "unavailable"
	StatusOpen        Status = "open"
	StatusUnknown     Status = "unknown"
)

type Availability struct {
	Status             Status `json:"status"`
	OpenLibraryEdition string `json:"openlibrary_edition,omitempty"`
	// LoansRemaining is set when the copy counts were known.
	LoansRemaining *int `json:"loans_remaining,omitempty"`
	// Until is the earliest expected return, for records that cannot be
	// borrowed right now.
	Until *time.Time `json:"until,omitempty"`
}

// Lending holds the raw lending fields of an item. A nil field was absent
// or could not be parsed.
type Lending struct {
	AccessRestricted   *bool
	AvailableToBorrow  *bool
	AvailableToBrowse  *bool
	IsLendable         *bool
	MaxLendableCopies  *int
	UsersOnWaitlist    *int
	ActiveBorrows      *int
	ActiveBrowses      *int
	BorrowExpiration   *time.Time
	BrowseExpiration   *time.Time
	OpenLibraryEdition string
}

// ParseLending reads the lending fields out of an item's metadata map.
func ParseLending(md map[string]any) Lending {
	l := Lending{
		AccessRestricted:  boolField(md, "access-restricted-item"),
		AvailableToBorrow: boolField(md, "lending___available_to_borrow"),
		AvailableToBrowse: boolField(md, "lending___available_to_browse"),
		IsLendable:        boolField(md, "lending___is_lendable"),
		MaxLendableCopies: intField(md, "lending___max_lendable_copies"),
		UsersOnWaitlist:   intField(md, "lending___users_on_waitlist"),
		ActiveBorrows:     intField(md, "lending___active_borrows"),
		ActiveBrowses:     intField(md, "lending___active_browses"),
		BorrowExpiration:  timeField(md, "lending___borrow_expiration"),
		BrowseExpiration:  timeField(md, "lending___browse_expiration"),
	}
	if v := first(md["openlibrary_edition"]); v != "" {
		l.OpenLibraryEdition = v
	}
	return l
}

func (l Lending) hasLendingData() bool {
	return l.AvailableToBorrow != nil || l.AvailableToBrowse != nil || l.IsLendable != nil ||
		l.MaxLendableCopies != nil || l.ActiveBorrows != nil || l.ActiveBrowses != nil ||
		l.UsersOnWaitlist != nil
}

// ComputeAvailability maps raw lending fields to a Status. Precedence:
// open, unknown (no lending data), available, waitlisted, unavailable.
func ComputeAvailability(l Lending) Availability {
	a := Availability{OpenLibraryEdition: l.OpenLibraryEdition}

	if l.AccessRestricted != nil && !*l.AccessRestricted {
		a.Status = StatusOpen
		return a
	}
	if !l.hasLendingData() {
		a.Status = StatusUnknown
		return a
	}

	if l.MaxLendableCopies != nil {
		remaining := *l.MaxLendableCopies - deref(l.ActiveBorrows) - deref(l.ActiveBrowses)
		if remaining < 0 {
			remaining = 0
		}
		a.LoansRemaining = &remaining
	}

	switch {
	case a.LoansRemaining != nil && *a.LoansRemaining > 0,
		isTrue(l.AvailableToBorrow),
		isTrue(l.AvailableToBrowse):
		a.Status = StatusAvailable
		return a
	case isTrue(l.IsLendable):
		a.Status = StatusWaitlisted
	default:
		a.Status = StatusUnavailable
	}
	a.Until = l.nextReturn()
	return a
}

// nextReturn estimates when a copy frees up. One copy is always held back
// for browsing, so the borrowable pool is max-1.
func (l Lending) nextReturn() *time.Time {
	if l.MaxLendableCopies == nil || l.UsersOnWaitlist == nil || l.ActiveBorrows == nil || l.ActiveBrowses == nil {
		return nil
	}
	maxLend := *l.MaxLendableCopies
	waiting := *l.UsersOnWaitlist
	borrows := *l.ActiveBorrows
	browses := *l.ActiveBrowses
	maxBorrow := maxLend - 1

	afterBrowse := maxLend-((browses-1)+borrows+waiting) > 0 &&
		maxBorrow-(borrows+waiting) > 0
	afterBorrow := maxLend-(browses+(borrows-1)+waiting) > 0 &&
		maxBorrow-((borrows-1)+waiting) > 0

	var until *time.Time
	if afterBrowse {
		until = earliest(until, l.BrowseExpiration)
	}
	if afterBorrow {
		until = earliest(until, l.BorrowExpiration)
	}
	return until
}

func earliest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}

func boolField(md map[string]any, key string) *bool {
	raw, ok := md[key]
	if !ok {
		return nil
	}
	v, err := cast.ToBoolE(firstAny(raw))
	if err != nil {
		return nil
	}
	return &v
}

func intField(md map[string]any, key string) *int {
	raw, ok := md[key]
	if !ok {
		return nil
	}
	v, err := cast.ToIntE(firstAny(raw))
	if err != nil {
		return nil
	}
	return &v
}

func timeField(md map[string]any, key string) *time.Time {
	raw, ok := md[key]
	if !ok {
		return nil
	}
	v, err := cast.ToTimeE(firstAny(raw))
	if err != nil || v.IsZero() {
		return nil
	}
	return &v
}

func isTrue(b *bool) bool { return b != nil && *b }

func deref(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
