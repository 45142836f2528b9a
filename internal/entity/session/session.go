package session

import (
	"github.com/pkg/errors"

	"expensetrack/companion-bot/internal/validate"
)

// Profile is the backend's view of the account owner.
type Profile struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	BudgetLimit float64 `json:"budgetLimit"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
}

// Session is the authenticated client context. Token and profile are
// set together or not at all; New enforces that.
type Session struct {
	token   string
	profile Profile
	active  bool
}

var ErrIncomplete = errors.New("session needs both token and profile")

func New(token string, profile Profile) (Session, error) {
	if token == "" || profile.Email == "" {
		return Session{}, ErrIncomplete
	}
	return Session{token: token, profile: profile, active: true}, nil
}

// None is the unauthenticated session.
func None() Session {
	return Session{}
}

func (s Session) IsAuthenticated() bool {
	return s.active
}

func (s Session) Token() string {
	return s.token
}

func (s Session) Profile() Profile {
	return s.profile
}

// WithBudgetLimit returns a copy with the cached budget limit replaced.
func (s Session) WithBudgetLimit(limit float64) Session {
	s.profile.BudgetLimit = limit
	return s
}

// Credentials are the sign-in form fields.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) Validate() error {
	errs := make(validate.FieldErrors)
	if !validate.Email(c.Email) {
		errs.Set("email", "Invalid email address")
	}
	if c.Password == "" {
		errs.Set("password", "Password is required")
	}
	return errs.OrNil()
}

// SignupForm mirrors the sign-up screen fields; budget and phone are
// optional and validated only when present.
type SignupForm struct {
	Name        string
	Email       string
	Password    string
	BudgetLimit float64
	HasBudget   bool
	PhoneNumber string
}

func (f SignupForm) Validate() error {
	errs := make(validate.FieldErrors)
	if len(f.Name) < 2 {
		errs.Set("name", "Name must be at least 2 characters")
	}
	if !validate.Email(f.Email) {
		errs.Set("email", "Invalid email address")
	}
	if len(f.Password) < 6 {
		errs.Set("password", "Password must be at least 6 characters")
	}
	if f.HasBudget && f.BudgetLimit <= 0 {
		errs.Set("budgetLimit", "Budget must be a positive number")
	}
	if f.PhoneNumber != "" && !validate.Phone(f.PhoneNumber) {
		errs.Set("phoneNumber", "Invalid phone number format")
	}
	return errs.OrNil()
}
