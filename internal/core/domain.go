package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// DefaultTimeFrameMonths is the savings horizon used when none is supplied.
const DefaultTimeFrameMonths = 12

type (
	Direction string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single ingested movement. Amount is always the absolute
	// value; Direction carries the sign.
	Transaction struct {
		Date      Date      `json:"date"`
		Amount    Money     `json:"amount"`
		Category  string    `json:"category"`
		Direction Direction `json:"direction"`
	}

	Subscription struct {
		Name     string `json:"name"`
		Cost     Money  `json:"cost"`
		Priority string `json:"priority,omitempty"`
	}

	Debt struct {
		Name     string `json:"name"`
		Amount   Money  `json:"amount"`
		Priority string `json:"priority,omitempty"`
	}

	// FinancialSnapshot is the single-month aggregate consumed by Score.
	FinancialSnapshot struct {
		Year             int              `json:"year,omitempty"`
		Month            int              `json:"month,omitempty"`
		Income           Money            `json:"income"`
		FixedExpenses    Money            `json:"fixed_expenses"`
		VariableExpenses map[string]Money `json:"variable_expenses"`
		Subscriptions    []Subscription   `json:"subscriptions"`
		Debts            []Debt           `json:"debts"`
		CurrentSavings   Money            `json:"current_savings"`
		SavingsGoal      Money            `json:"savings_goal"`
		TimeFrameMonths  int              `json:"time_frame_months"`
		StressScore      *float64         `json:"stress_score,omitempty"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrEmptyCategory    = errors.New("empty category")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts the formats understood by ParseDate.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (dir Direction) Valid() bool {
	return dir == Credit || dir == Debit
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !t.Direction.Valid() {
		return ErrInvalidDirection
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// TotalVariable sums every variable expense bucket.
func (s FinancialSnapshot) TotalVariable() Money {
	var total int64
	for _, m := range s.VariableExpenses {
		total += m.Cents
	}
	return Money{Cents: total}
}

// TotalExpenses is fixed plus variable spending.
func (s FinancialSnapshot) TotalExpenses() Money {
	return Money{Cents: s.FixedExpenses.Cents + s.TotalVariable().Cents}
}

// CheckedTotalExpenses is TotalExpenses with overflow detection, for
// snapshots whose amounts have not been bounded yet.
func (s FinancialSnapshot) CheckedTotalExpenses() (Money, error) {
	total := s.FixedExpenses
	for _, name := range sortedKeys(s.VariableExpenses) {
		var err error
		if total, err = total.Add(s.VariableExpenses[name]); err != nil {
			return Money{}, sumOverflow("variable_expenses")
		}
	}
	return total, nil
}

// WithObligations returns a copy carrying the pass-through subscription and
// debt records. They are not inspected.
func (s FinancialSnapshot) WithObligations(subs []Subscription, debts []Debt) FinancialSnapshot {
	out := s
	out.Subscriptions = append([]Subscription(nil), subs...)
	out.Debts = append([]Debt(nil), debts...)
	return out
}

// Clone returns a deep copy that shares no map, slice or pointer with s.
func (s FinancialSnapshot) Clone() FinancialSnapshot {
	out := s.WithObligations(s.Subscriptions, s.Debts)
	if s.VariableExpenses != nil {
		out.VariableExpenses = make(map[string]Money, len(s.VariableExpenses))
		for k, v := range s.VariableExpenses {
			out.VariableExpenses[k] = v
		}
	}
	if s.StressScore != nil {
		v := *s.StressScore
		out.StressScore = &v
	}
	return out
}

// WithScore returns a copy with StressScore set.
func (s FinancialSnapshot) WithScore(score float64) FinancialSnapshot {
	out := s
	out.StressScore = &score
	return out
}

// ApplyDefaults fills zero-valued optional fields.
func (s FinancialSnapshot) ApplyDefaults() FinancialSnapshot {
	out := s
	if out.TimeFrameMonths == 0 {
		out.TimeFrameMonths = DefaultTimeFrameMonths
	}
	if out.VariableExpenses == nil {
		out.VariableExpenses = map[string]Money{}
	}
	if out.Subscriptions == nil {
		out.Subscriptions = []Subscription{}
	}
	if out.Debts == nil {
		out.Debts = []Debt{}
	}
	return out
}

// Validate checks the non-negativity invariants. Income is allowed to be zero
// here; Score rejects it separately.
func (s FinancialSnapshot) Validate() error {
	verr := &ValidationError{}
	if s.Income.Cents < 0 {
		verr.Add("income", "must be non-negative")
	}
	if s.FixedExpenses.Cents < 0 {
		verr.Add("fixed_expenses", "must be non-negative")
	}
	for _, name := range sortedKeys(s.VariableExpenses) {
		if s.VariableExpenses[name].Cents < 0 {
			verr.Add("variable_expenses."+name, "must be non-negative")
		}
	}
	if len(verr.Fields) == 0 {
		if _, err := s.CheckedTotalExpenses(); err != nil {
			verr.Add("variable_expenses", "total exceeds the supported amount range")
		}
	}
	if s.TimeFrameMonths < 0 {
		verr.Add("time_frame_months", "must be a positive integer")
	}
	if s.StressScore != nil && (*s.StressScore < MinStressScore || *s.StressScore > MaxStressScore) {
		verr.Add("stress_score", "must be between 0 and 100")
	}
	return verr.ErrOrNil()
}
