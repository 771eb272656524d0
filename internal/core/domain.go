package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// MaxCategoryLength matches the width of the category column.
const MaxCategoryLength = 50

type (
	// Date is a calendar date with no time-of-day component.
	Date struct {
		time.Time
	}

	// Expense is one stored spending record.
	Expense struct {
		ID          int64
		Amount      decimal.Decimal
		Category    *string // nil when uncategorised
		Description *string
		Date        Date
	}

	// NewExpense holds the fields accepted by the store on insert.
	// A nil Date lets the store apply its own current date.
	NewExpense struct {
		Amount      decimal.Decimal
		Category    *string
		Description *string
		Date        *Date
	}
)

var (
	ErrStorage         = errors.New("storage error")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrCategoryTooLong = fmt.Errorf("category longer than %d characters", MaxCategoryLength)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf truncates t to its calendar date, keeping the date as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Equal reports whether both dates fall on the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.String() == other.String()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as YYYY-MM-DD text, which both PostgreSQL DATE
// and SQLite accept and which sorts chronologically.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads a date column. Drivers hand back either time.Time or text,
// and SQLite text may carry a trailing time component.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T into Date", ErrInvalidDate, src)
	}
}

func (d *Date) scanText(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[:len(DateLayout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the fields the store cannot accept.
// Amount sign and category values are not constrained.
func (e NewExpense) Validate() error {
	if e.Category != nil && len([]rune(*e.Category)) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	if e.Date != nil && e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// CategoryName returns the category or an empty string when unset.
func (e Expense) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return *e.Category
}

// DescriptionText returns the description or an empty string when unset.
func (e Expense) DescriptionText() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
