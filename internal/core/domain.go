package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Defaults applied when a category is created without presentation hints.
const (
	DefaultCategoryColor = "#3B82F6"
	DefaultCategoryIcon  = "tag"
)

type (
	// Period is the recurrence window over which a budget's spending is measured.
	Period string

	// Expense is a single spending record owned by one user.
	Expense struct {
		ID          string `json:"expenseId"`
		UserID      string `json:"userId"`
		Amount      Amount `json:"amount"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Date        string `json:"date"` // calendar date, "YYYY-MM-DD"
		CreatedAt   string `json:"createdAt"`
		UpdatedAt   string `json:"updatedAt"`
	}

	// Budget is a per-category spending limit with an alert threshold.
	Budget struct {
		ID             string  `json:"budgetId"`
		UserID         string  `json:"userId"`
		Category       string  `json:"category"`
		Amount         Amount  `json:"amount"`
		AlertThreshold Percent `json:"alertThreshold"`
		Period         Period  `json:"period"`
		CreatedAt      string  `json:"createdAt"`
		UpdatedAt      string  `json:"updatedAt"`
	}

	// Category is a user-defined label for expenses and budgets. Expense and
	// budget records reference it by name, not by id, so renames and deletes
	// can leave orphaned references; aggregation treats those as ordinary
	// zero-initialized buckets.
	Category struct {
		ID        string `json:"categoryId"`
		UserID    string `json:"userId"`
		Name      string `json:"name"`
		Color     string `json:"color"`
		Icon      string `json:"icon"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidThreshold = errors.New("alert threshold out of range")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidColor     = errors.New("color must be a #RRGGBB hex string")
)

// IsValidationError reports whether err is one of the record validation
// sentinels, so transport layers can map it to a client error.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidAmount, ErrInvalidDate, ErrInvalidPeriod,
		ErrInvalidThreshold, ErrEmptyCategory, ErrEmptyName, ErrInvalidColor,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a well-formed "YYYY-MM-DD" calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsValid returns true if the period is a member of the enum.
func (p Period) IsValid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (e Expense) Validate() error {
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	if !ValidDate(e.Date) {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Color != "" && !hexColorRe.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// ApplyDefaults fills presentation fields the client may omit.
func (c *Category) ApplyDefaults() {
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
}

// Timestamp renders t in the wire format used for createdAt/updatedAt.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
