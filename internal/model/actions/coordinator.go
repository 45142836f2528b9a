// Package actions sequences every network-backed user action through
// one pipeline: local validation, a single API call, a store or
// session update on confirmed success, and user feedback. The store
// is never touched before the backend answers.
package actions

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"expensetrack/companion-bot/internal/clients/expenseapi"
	"expensetrack/companion-bot/internal/entity/expense"
	"expensetrack/companion-bot/internal/entity/session"
	"expensetrack/companion-bot/internal/logger"
	"expensetrack/companion-bot/internal/model/aggregate"
	"expensetrack/companion-bot/internal/model/store"
	"expensetrack/companion-bot/internal/validate"
)

// Action names one discrete user-triggered operation. Each action has
// its own pending flag: re-invoking a pending action is rejected, but
// distinct actions may be in flight at the same time.
type Action string

const (
	ActionFetchAll     Action = "fetch_all"
	ActionCreate       Action = "create"
	ActionDeleteOne    Action = "delete_one"
	ActionDeleteAll    Action = "delete_all"
	ActionUpdateBudget Action = "update_budget"
	ActionExport       Action = "export"
	ActionAnalyze      Action = "analyze"
	ActionLogin        Action = "login"
	ActionSignup       Action = "signup"
)

type apiClient interface {
	Login(ctx context.Context, creds session.Credentials) (session.Session, error)
	Signup(ctx context.Context, form session.SignupForm) (session.Session, error)
	Expenses(ctx context.Context, token string) ([]expense.Expense, error)
	CreateExpense(ctx context.Context, token string, draft expense.Draft, receipt *expenseapi.Receipt) (expense.Expense, error)
	DeleteExpense(ctx context.Context, token, id string) error
	DeleteAllExpenses(ctx context.Context, token string) (string, error)
	UpdateBudgetLimit(ctx context.Context, token string, newLimit float64) (string, error)
	ExportPDF(ctx context.Context, token string) (expenseapi.Document, error)
	Analyze(ctx context.Context, token, query string) (string, error)
}

// notifier is the transient-notification collaborator (the toast
// analog). Failure paths produce a notification here and an inline
// error to the caller; the redundancy is deliberate.
type notifier interface {
	Success(text string) error
	Error(text string) error
}

type stateStore interface {
	Session() session.Session
	SaveSession(sess session.Session) error
	ClearSession() error
	CategoryFilter() string
	SaveCategoryFilter(filter string) error
}

type config interface {
	Downloads() string
}

type Coordinator struct {
	api      apiClient
	notifier notifier
	state    stateStore
	dir      string

	mu         sync.Mutex
	store      *store.ExpenseStore
	sess       session.Session
	pending    map[Action]bool
	generation uint64
	filter     string
	lastQuery  string
}

// New restores the cached session and filter; the expense list itself
// starts empty and is only filled by FetchAll.
func New(api apiClient, notifier notifier, state stateStore, cfg config) *Coordinator {
	return &Coordinator{
		api:      api,
		notifier: notifier,
		state:    state,
		dir:      cfg.Downloads(),
		store:    store.NewExpenseStore(),
		sess:     state.Session(),
		pending:  make(map[Action]bool),
		filter:   state.CategoryFilter(),
	}
}

// begin marks the action pending and snapshots the session generation
// the completion must match to be allowed to touch any state.
func (c *Coordinator) begin(a Action) (uint64, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[a] {
		return 0, "", errors.Wrapf(ErrActionPending, "%s", a)
	}
	c.pending[a] = true
	return c.generation, c.sess.Token(), nil
}

func (c *Coordinator) end(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, a)
}

// commit runs the state mutation only when the generation is still
// current; a completion that arrives after logout is a safe no-op.
func (c *Coordinator) commit(gen uint64, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	apply()
	return true
}

// fail classifies a request failure, emits the transient notification
// and returns the inline error. Stale completions notify nothing.
func (c *Coordinator) fail(gen uint64, err error, generic string) error {
	return c.failNotify(gen, err, generic, UserMessage(err, generic))
}

// failNotify is fail with a fixed notification text, for actions whose
// error bodies are never rendered.
func (c *Coordinator) failNotify(gen uint64, err error, generic, text string) error {
	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		return ErrStale
	}

	var status *expenseapi.StatusError
	if errors.As(err, &status) && status.Unauthorized() {
		c.expireSession()
		return errors.Wrap(ErrSessionExpired, generic)
	}

	if nerr := c.notifier.Error(text); nerr != nil {
		logger.Error("notify failed", zap.Error(nerr))
	}
	return err
}

// expireSession drops the local session after the backend rejected
// the token; the guard will route the user back to sign-in.
func (c *Coordinator) expireSession() {
	c.mu.Lock()
	c.sess = session.None()
	c.generation++
	c.store.Clear()
	c.mu.Unlock()

	if err := c.state.ClearSession(); err != nil {
		logger.Error("clearing cached session", zap.Error(err))
	}
	if err := c.notifier.Error("Session expired. Please sign in again"); err != nil {
		logger.Error("notify failed", zap.Error(err))
	}
}

func (c *Coordinator) notifySuccess(text string) {
	if err := c.notifier.Success(text); err != nil {
		logger.Error("notify failed", zap.Error(err))
	}
}

// Session returns the current session value.
func (c *Coordinator) Session() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Coordinator) IsAuthenticated() bool {
	return c.Session().IsAuthenticated()
}

// Login validates locally, exchanges credentials for a session and
// replaces whatever session was active. Auth-screen failures stay
// inline; there is no toast here, matching the sign-in screen.
func (c *Coordinator) Login(ctx context.Context, creds session.Credentials) (session.Session, error) {
	if err := creds.Validate(); err != nil {
		return session.None(), err
	}
	gen, _, err := c.begin(ActionLogin)
	if err != nil {
		return session.None(), err
	}
	defer c.end(ActionLogin)

	span, ctx := opentracing.StartSpanFromContext(ctx, "login")
	defer span.Finish()
	start := time.Now()

	sess, err := c.api.Login(ctx, creds)
	observeAction(ActionLogin, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return session.None(), errors.Wrap(err, "login")
	}

	c.adoptSession(gen, sess)
	return sess, nil
}

// Signup mirrors Login with the sign-up form rules.
func (c *Coordinator) Signup(ctx context.Context, form session.SignupForm) (session.Session, error) {
	if err := form.Validate(); err != nil {
		return session.None(), err
	}
	gen, _, err := c.begin(ActionSignup)
	if err != nil {
		return session.None(), err
	}
	defer c.end(ActionSignup)

	span, ctx := opentracing.StartSpanFromContext(ctx, "signup")
	defer span.Finish()
	start := time.Now()

	sess, err := c.api.Signup(ctx, form)
	observeAction(ActionSignup, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return session.None(), errors.Wrap(err, "signup")
	}

	c.adoptSession(gen, sess)
	return sess, nil
}

func (c *Coordinator) adoptSession(gen uint64, sess session.Session) {
	applied := c.commit(gen, func() {
		c.sess = sess
		c.generation++
		c.store.Clear()
	})
	if !applied {
		return
	}
	if err := c.state.SaveSession(sess); err != nil {
		logger.Error("caching session", zap.Error(err))
	}
}

// Logout destroys the session and the cached copy. Expense data of
// the old session cannot leak into the next one: the generation bump
// makes any still-running completion a no-op.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	c.sess = session.None()
	c.generation++
	c.store.Clear()
	c.lastQuery = ""
	c.mu.Unlock()

	if err := c.state.ClearSession(); err != nil {
		logger.Error("clearing cached session", zap.Error(err))
	}
	c.notifySuccess("Logged out successfully")
}

// FetchAll replaces the whole list from the backend. This is the only
// reconciliation point between the cache and server truth.
func (c *Coordinator) FetchAll(ctx context.Context) ([]expense.Expense, error) {
	gen, token, err := c.begin(ActionFetchAll)
	if err != nil {
		return nil, err
	}
	defer c.end(ActionFetchAll)

	span, ctx := opentracing.StartSpanFromContext(ctx, "fetchAll")
	defer span.Finish()
	start := time.Now()

	list, err := c.api.Expenses(ctx, token)
	observeAction(ActionFetchAll, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return nil, c.fail(gen, err, "Failed to load expenses")
	}

	if !c.commit(gen, func() { c.store.ReplaceAll(list) }) {
		return nil, ErrStale
	}
	return list, nil
}

// Create validates the draft locally (a validation failure never
// reaches the network), posts it, and prepends the server-assigned
// record to the list.
func (c *Coordinator) Create(ctx context.Context, draft expense.Draft, receipt *expenseapi.Receipt) (expense.Expense, error) {
	if err := draft.Validate(); err != nil {
		return expense.Expense{}, err
	}
	gen, token, err := c.begin(ActionCreate)
	if err != nil {
		return expense.Expense{}, err
	}
	defer c.end(ActionCreate)

	span, ctx := opentracing.StartSpanFromContext(ctx, "createExpense")
	defer span.Finish()
	start := time.Now()

	created, err := c.api.CreateExpense(ctx, token, draft, receipt)
	observeAction(ActionCreate, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return expense.Expense{}, c.fail(gen, err, "Failed to add expense")
	}

	if !c.commit(gen, func() { c.store.Prepend(created) }) {
		return expense.Expense{}, ErrStale
	}
	if draft.IsRecurring {
		c.notifySuccess("Recurring expense added!")
	} else {
		c.notifySuccess("Expense added!")
	}
	return created, nil
}

// DeleteOne removes a confirmed expense. Confirmation is the calling
// view's job; this layer only sees already-confirmed intents.
func (c *Coordinator) DeleteOne(ctx context.Context, id string) error {
	gen, token, err := c.begin(ActionDeleteOne)
	if err != nil {
		return err
	}
	defer c.end(ActionDeleteOne)

	span, ctx := opentracing.StartSpanFromContext(ctx, "deleteExpense")
	defer span.Finish()
	span.SetTag("expense_id", id)
	start := time.Now()

	err = c.api.DeleteExpense(ctx, token, id)
	observeAction(ActionDeleteOne, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return c.fail(gen, err, "Failed to delete expense")
	}

	if !c.commit(gen, func() { c.store.RemoveByID(id) }) {
		return ErrStale
	}
	c.notifySuccess("Expense deleted")
	return nil
}

// DeleteAll empties the list. Irreversible on this side: there is no
// undo, only whatever the backend offers.
func (c *Coordinator) DeleteAll(ctx context.Context) error {
	gen, token, err := c.begin(ActionDeleteAll)
	if err != nil {
		return err
	}
	defer c.end(ActionDeleteAll)

	span, ctx := opentracing.StartSpanFromContext(ctx, "deleteAllExpenses")
	defer span.Finish()
	start := time.Now()

	message, err := c.api.DeleteAllExpenses(ctx, token)
	observeAction(ActionDeleteAll, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return c.fail(gen, err, "Failed to delete all expenses")
	}

	if !c.commit(gen, func() { c.store.Clear() }) {
		return ErrStale
	}
	if message == "" {
		message = "All expenses deleted"
	}
	c.notifySuccess(message)
	return nil
}

// UpdateBudget changes the limit server-side first; the cached profile
// copy only moves when the backend confirmed, so a failure leaves the
// local value untouched.
func (c *Coordinator) UpdateBudget(ctx context.Context, newLimit float64) error {
	if newLimit <= 0 {
		errs := make(validate.FieldErrors)
		errs.Set("budgetLimit", "Please enter a valid budget amount")
		return errs
	}
	gen, token, err := c.begin(ActionUpdateBudget)
	if err != nil {
		return err
	}
	defer c.end(ActionUpdateBudget)

	span, ctx := opentracing.StartSpanFromContext(ctx, "updateBudget")
	defer span.Finish()
	start := time.Now()

	_, err = c.api.UpdateBudgetLimit(ctx, token, newLimit)
	observeAction(ActionUpdateBudget, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return c.fail(gen, err, "Failed to update budget")
	}

	var updated session.Session
	applied := c.commit(gen, func() {
		c.sess = c.sess.WithBudgetLimit(newLimit)
		updated = c.sess
	})
	if !applied {
		return ErrStale
	}
	if err = c.state.SaveSession(updated); err != nil {
		logger.Error("caching session", zap.Error(err))
	}
	c.notifySuccess("Budget limit updated!")
	return nil
}

// Export downloads the PDF and writes it to the downloads directory
// under the filename the backend resolved.
func (c *Coordinator) Export(ctx context.Context) (expenseapi.Document, string, error) {
	gen, token, err := c.begin(ActionExport)
	if err != nil {
		return expenseapi.Document{}, "", err
	}
	defer c.end(ActionExport)

	span, ctx := opentracing.StartSpanFromContext(ctx, "exportPDF")
	defer span.Finish()
	start := time.Now()

	doc, err := c.api.ExportPDF(ctx, token)
	observeAction(ActionExport, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return expenseapi.Document{}, "", c.failNotify(gen, err, "Export failed", "Export failed")
	}

	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		return expenseapi.Document{}, "", ErrStale
	}

	path := filepath.Join(c.dir, doc.Filename)
	if err = os.MkdirAll(c.dir, 0o755); err == nil {
		err = os.WriteFile(path, doc.Data, 0o644)
	}
	if err != nil {
		err = errors.Wrap(err, "saving export")
		if nerr := c.notifier.Error("Export failed"); nerr != nil {
			logger.Error("notify failed", zap.Error(nerr))
		}
		return expenseapi.Document{}, "", err
	}

	c.notifySuccess("Exported: " + doc.Filename)
	return doc, path, nil
}

// Analyze sends the free-text query. The query is remembered whether
// it succeeds or fails so Retry can re-issue it unchanged.
func (c *Coordinator) Analyze(ctx context.Context, query string) (string, error) {
	if validate.Blank(query) {
		errs := make(validate.FieldErrors)
		errs.Set("query", "Please enter a question")
		return "", errs
	}
	gen, token, err := c.begin(ActionAnalyze)
	if err != nil {
		return "", err
	}
	defer c.end(ActionAnalyze)

	c.mu.Lock()
	c.lastQuery = query
	c.mu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "analyze")
	defer span.Finish()
	start := time.Now()

	answer, err := c.api.Analyze(ctx, token, query)
	observeAction(ActionAnalyze, time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		return "", c.fail(gen, err, "Analysis failed")
	}

	c.notifySuccess("Analysis complete!")
	return answer, nil
}

// Retry re-issues the last analyze query. User-initiated only; the
// coordinator never retries on its own.
func (c *Coordinator) Retry(ctx context.Context) (string, error) {
	c.mu.Lock()
	query := c.lastQuery
	c.mu.Unlock()
	if query == "" {
		return "", ErrNothingToRetry
	}
	return c.Analyze(ctx, query)
}

// Filter returns the persisted category filter ("all" by default).
func (c *Coordinator) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetFilter persists the selection. The filter only narrows the
// listed rows; aggregates always run over the full list.
func (c *Coordinator) SetFilter(category string) error {
	if category != aggregate.FilterAll && !expense.KnownCategory(category) {
		errs := make(validate.FieldErrors)
		errs.Set("category", "Unknown category")
		return errs
	}
	c.mu.Lock()
	c.filter = category
	c.mu.Unlock()
	return errors.Wrap(c.state.SaveCategoryFilter(category), "persist filter")
}

// Expenses lists the rows the current filter admits.
func (c *Coordinator) Expenses() []expense.Expense {
	c.mu.Lock()
	defer c.mu.Unlock()
	return aggregate.Filter(c.store.List(), c.filter)
}

// Summary derives the dashboard numbers from the full list and the
// cached budget limit; it is recomputed on every call, never cached.
func (c *Coordinator) Summary() aggregate.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return aggregate.Summarize(c.store.List(), c.sess.Profile().BudgetLimit)
}
