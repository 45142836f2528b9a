package expenseapi

import (
	"context"

	"github.com/pkg/errors"

	"expensetrack/companion-bot/internal/entity/session"
)

type authResponse struct {
	Token string          `json:"token"`
	User  session.Profile `json:"user"`
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) (session.Session, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{creds.Email, creds.Password}

	var resp authResponse
	if err := c.postJSON(ctx, loginPath, "", payload, &resp); err != nil {
		return session.None(), errors.Wrap(err, "login")
	}
	sess, err := session.New(resp.Token, resp.User)
	return sess, errors.Wrap(err, "login")
}

func (c *Client) Signup(ctx context.Context, form session.SignupForm) (session.Session, error) {
	payload := struct {
		Name        string   `json:"name"`
		Email       string   `json:"email"`
		Password    string   `json:"password"`
		BudgetLimit *float64 `json:"budgetLimit,omitempty"`
		PhoneNumber string   `json:"phoneNumber,omitempty"`
	}{
		Name:        form.Name,
		Email:       form.Email,
		Password:    form.Password,
		PhoneNumber: form.PhoneNumber,
	}
	if form.HasBudget {
		payload.BudgetLimit = &form.BudgetLimit
	}

	var resp authResponse
	if err := c.postJSON(ctx, signupPath, "", payload, &resp); err != nil {
		return session.None(), errors.Wrap(err, "signup")
	}
	sess, err := session.New(resp.Token, resp.User)
	return sess, errors.Wrap(err, "signup")
}
