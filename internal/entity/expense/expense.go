package expense

import (
	"time"

	"github.com/jinzhu/now"

	"expensetrack/companion-bot/internal/validate"
)

const (
	CategoryFood          = "Food"
	CategoryTravel        = "Travel"
	CategoryOffice        = "Office"
	CategoryEntertainment = "Entertainment"
	CategoryHealth        = "Health"
	CategoryOther         = "Other"
)

var Categories = []string{
	CategoryFood,
	CategoryTravel,
	CategoryOffice,
	CategoryEntertainment,
	CategoryHealth,
	CategoryOther,
}

const (
	Weekly  = "weekly"
	Monthly = "monthly"
	Yearly  = "yearly"
)

var Frequencies = []string{Weekly, Monthly, Yearly}

// Expense is a single spending record as the backend returns it.
// The id is server-assigned; the client never invents one.
type Expense struct {
	ID                 string    `json:"_id"`
	Title              string    `json:"title"`
	Amount             float64   `json:"amount"`
	Category           string    `json:"category"`
	Date               time.Time `json:"date"`
	Notes              string    `json:"notes,omitempty"`
	ReceiptURL         string    `json:"receiptURL,omitempty"`
	IsRecurring        bool      `json:"isRecurring,omitempty"`
	RecurringFrequency string    `json:"recurringFrequency,omitempty"`
}

// Draft is the client-side shape of a not-yet-created expense.
type Draft struct {
	Title              string
	Amount             float64
	Category           string
	Date               time.Time
	Notes              string
	IsRecurring        bool
	RecurringFrequency string
}

func KnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func KnownFrequency(name string) bool {
	for _, f := range Frequencies {
		if f == name {
			return true
		}
	}
	return false
}

// Validate applies the create-form rules. A non-nil result blocks the
// request entirely; the server is never asked to re-check these.
func (d Draft) Validate() error {
	errs := make(validate.FieldErrors)

	if validate.Blank(d.Title) {
		errs.Set("title", "Title is required")
	} else if len(d.Title) < 3 {
		errs.Set("title", "Title must be at least 3 characters")
	}

	if d.Amount <= 0 {
		errs.Set("amount", "Amount must be greater than 0")
	}

	if validate.Blank(d.Category) {
		errs.Set("category", "Category is required")
	} else if !KnownCategory(d.Category) {
		errs.Set("category", "Unknown category")
	}

	if d.Date.IsZero() {
		errs.Set("date", "Date is required")
	} else if d.Date.After(now.EndOfDay()) {
		errs.Set("date", "Date cannot be in the future")
	}

	if d.IsRecurring && !KnownFrequency(d.RecurringFrequency) {
		errs.Set("recurringFrequency", "Frequency must be weekly, monthly or yearly")
	}

	return errs.OrNil()
}
