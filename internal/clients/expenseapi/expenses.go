package expenseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"expensetrack/companion-bot/internal/entity/expense"
)

// Receipt is an optional binary attachment for a new expense.
type Receipt struct {
	Name string
	Data []byte
}

func (c *Client) Expenses(ctx context.Context, token string) ([]expense.Expense, error) {
	req, err := c.newRequest(ctx, http.MethodGet, expensesPath, token, nil)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	var list []expense.Expense
	if err = c.doJSON(req, &list); err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	return list, nil
}

// CreateExpense posts a multipart form: a "data" field carrying the
// JSON payload plus an optional "receipt" binary part.
func (c *Client) CreateExpense(ctx context.Context, token string, draft expense.Draft, receipt *Receipt) (expense.Expense, error) {
	payload := struct {
		Title              string  `json:"title"`
		Amount             float64 `json:"amount"`
		Category           string  `json:"category"`
		Date               string  `json:"date"`
		Notes              string  `json:"notes,omitempty"`
		IsRecurring        bool    `json:"isRecurring"`
		RecurringFrequency string  `json:"recurringFrequency,omitempty"`
	}{
		Title:       draft.Title,
		Amount:      draft.Amount,
		Category:    draft.Category,
		Date:        draft.Date.Format(dateLayout),
		Notes:       draft.Notes,
		IsRecurring: draft.IsRecurring,
	}
	if draft.IsRecurring {
		payload.RecurringFrequency = draft.RecurringFrequency
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err = form.WriteField("data", string(raw)); err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}
	if receipt != nil {
		part, err := form.CreateFormFile("receipt", receipt.Name)
		if err != nil {
			return expense.Expense{}, errors.Wrap(err, "create expense")
		}
		if _, err = part.Write(receipt.Data); err != nil {
			return expense.Expense{}, errors.Wrap(err, "create expense")
		}
	}
	if err = form.Close(); err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}

	req, err := c.newRequest(ctx, http.MethodPost, expensesPath, token, &buf)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var resp struct {
		Expense expense.Expense `json:"expense"`
	}
	if err = c.doJSON(req, &resp); err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}
	return resp.Expense, nil
}

func (c *Client) DeleteExpense(ctx context.Context, token, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, expensesPath+"/"+url.PathEscape(id), token, nil)
	if err != nil {
		return errors.Wrap(err, "delete expense")
	}
	return errors.Wrap(c.doJSON(req, nil), "delete expense")
}

// DeleteAllExpenses returns the server's message when it sends one.
func (c *Client) DeleteAllExpenses(ctx context.Context, token string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, deleteAllPath, token, nil)
	if err != nil {
		return "", errors.Wrap(err, "delete all expenses")
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err = c.doJSON(req, &resp); err != nil {
		return "", errors.Wrap(err, "delete all expenses")
	}
	return resp.Message, nil
}

func (c *Client) UpdateBudgetLimit(ctx context.Context, token string, newLimit float64) (string, error) {
	payload := struct {
		NewLimit float64 `json:"newLimit"`
	}{newLimit}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.putJSON(ctx, budgetPath, token, payload, &resp); err != nil {
		return "", errors.Wrap(err, "update budget limit")
	}
	return resp.Message, nil
}
