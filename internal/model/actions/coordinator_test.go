package actions

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetrack/companion-bot/internal/clients/expenseapi"
	"expensetrack/companion-bot/internal/entity/expense"
	"expensetrack/companion-bot/internal/entity/session"
	"expensetrack/companion-bot/internal/validate"
)

type fakeAPI struct {
	loginFn     func(ctx context.Context, creds session.Credentials) (session.Session, error)
	signupFn    func(ctx context.Context, form session.SignupForm) (session.Session, error)
	expensesFn  func(ctx context.Context, token string) ([]expense.Expense, error)
	createFn    func(ctx context.Context, token string, draft expense.Draft, receipt *expenseapi.Receipt) (expense.Expense, error)
	deleteFn    func(ctx context.Context, token, id string) error
	deleteAllFn func(ctx context.Context, token string) (string, error)
	budgetFn    func(ctx context.Context, token string, newLimit float64) (string, error)
	exportFn    func(ctx context.Context, token string) (expenseapi.Document, error)
	analyzeFn   func(ctx context.Context, token, query string) (string, error)

	calls int
}

func (f *fakeAPI) Login(ctx context.Context, creds session.Credentials) (session.Session, error) {
	f.calls++
	if f.loginFn == nil {
		return session.None(), nil
	}
	return f.loginFn(ctx, creds)
}

func (f *fakeAPI) Signup(ctx context.Context, form session.SignupForm) (session.Session, error) {
	f.calls++
	if f.signupFn == nil {
		return session.None(), nil
	}
	return f.signupFn(ctx, form)
}

func (f *fakeAPI) Expenses(ctx context.Context, token string) ([]expense.Expense, error) {
	f.calls++
	if f.expensesFn == nil {
		return nil, nil
	}
	return f.expensesFn(ctx, token)
}

func (f *fakeAPI) CreateExpense(ctx context.Context, token string, draft expense.Draft, receipt *expenseapi.Receipt) (expense.Expense, error) {
	f.calls++
	if f.createFn == nil {
		return expense.Expense{}, nil
	}
	return f.createFn(ctx, token, draft, receipt)
}

func (f *fakeAPI) DeleteExpense(ctx context.Context, token, id string) error {
	f.calls++
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, token, id)
}

func (f *fakeAPI) DeleteAllExpenses(ctx context.Context, token string) (string, error) {
	f.calls++
	if f.deleteAllFn == nil {
		return "", nil
	}
	return f.deleteAllFn(ctx, token)
}

func (f *fakeAPI) UpdateBudgetLimit(ctx context.Context, token string, newLimit float64) (string, error) {
	f.calls++
	if f.budgetFn == nil {
		return "", nil
	}
	return f.budgetFn(ctx, token, newLimit)
}

func (f *fakeAPI) ExportPDF(ctx context.Context, token string) (expenseapi.Document, error) {
	f.calls++
	if f.exportFn == nil {
		return expenseapi.Document{}, nil
	}
	return f.exportFn(ctx, token)
}

func (f *fakeAPI) Analyze(ctx context.Context, token, query string) (string, error) {
	f.calls++
	if f.analyzeFn == nil {
		return "", nil
	}
	return f.analyzeFn(ctx, token, query)
}

type fakeNotifier struct {
	successes []string
	failures  []string
}

func (n *fakeNotifier) Success(text string) error {
	n.successes = append(n.successes, text)
	return nil
}

func (n *fakeNotifier) Error(text string) error {
	n.failures = append(n.failures, text)
	return nil
}

type fakeState struct {
	sess   session.Session
	filter string
	saves  int
	clears int
}

func (s *fakeState) Session() session.Session { return s.sess }

func (s *fakeState) SaveSession(sess session.Session) error {
	s.sess = sess
	s.saves++
	return nil
}

func (s *fakeState) ClearSession() error {
	s.sess = session.None()
	s.clears++
	return nil
}

func (s *fakeState) CategoryFilter() string {
	if s.filter == "" {
		return "all"
	}
	return s.filter
}

func (s *fakeState) SaveCategoryFilter(filter string) error {
	s.filter = filter
	return nil
}

type fakeConfig struct {
	dir string
}

func (c fakeConfig) Downloads() string { return c.dir }

func authedSession(t *testing.T) session.Session {
	sess, err := session.New("tok-123", session.Profile{Name: "Asha", Email: "a@b.io", BudgetLimit: 1000})
	require.NoError(t, err)
	return sess
}

func newTestCoordinator(t *testing.T, api *fakeAPI, signedIn bool) (*Coordinator, *fakeNotifier, *fakeState) {
	notifier := &fakeNotifier{}
	state := &fakeState{}
	if signedIn {
		state.sess = authedSession(t)
	}
	c := New(api, notifier, state, fakeConfig{dir: t.TempDir()})
	return c, notifier, state
}

func Test_OnLogin_ShouldAdoptAndCacheSession(t *testing.T) {
	sess := authedSession(t)
	api := &fakeAPI{
		loginFn: func(_ context.Context, creds session.Credentials) (session.Session, error) {
			assert.Equal(t, "a@b.io", creds.Email)
			return sess, nil
		},
	}
	c, notifier, state := newTestCoordinator(t, api, false)

	got, err := c.Login(context.Background(), session.Credentials{Email: "a@b.io", Password: "secret1"})

	require.NoError(t, err)
	assert.True(t, c.IsAuthenticated())
	assert.Equal(t, "tok-123", got.Token())
	assert.Equal(t, 1, state.saves)
	// auth screen failures and successes stay inline, no toast
	assert.Empty(t, notifier.successes)
}

func Test_OnLoginValidationFailure_ShouldNeverReachNetwork(t *testing.T) {
	api := &fakeAPI{}
	c, _, _ := newTestCoordinator(t, api, false)

	_, err := c.Login(context.Background(), session.Credentials{Email: "bad", Password: ""})

	var fields validate.FieldErrors
	assert.ErrorAs(t, err, &fields)
	assert.Equal(t, 0, api.calls)
}

func Test_OnSignup_ShouldValidateFormFirst(t *testing.T) {
	api := &fakeAPI{}
	c, _, _ := newTestCoordinator(t, api, false)

	_, err := c.Signup(context.Background(), session.SignupForm{Name: "A", Email: "bad", Password: "123"})

	var fields validate.FieldErrors
	assert.ErrorAs(t, err, &fields)
	assert.Equal(t, 0, api.calls)
}

func Test_OnFetchAll_ShouldReplaceStore(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, token string) ([]expense.Expense, error) {
			assert.Equal(t, "tok-123", token)
			return []expense.Expense{{ID: "e1"}, {ID: "e2"}}, nil
		},
	}
	c, _, _ := newTestCoordinator(t, api, true)

	list, err := c.FetchAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Len(t, c.Expenses(), 2)
}

func Test_OnCreate_ShouldPrependAndToast(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{{ID: "old"}}, nil
		},
		createFn: func(_ context.Context, _ string, draft expense.Draft, _ *expenseapi.Receipt) (expense.Expense, error) {
			return expense.Expense{ID: "new", Title: draft.Title, Amount: draft.Amount, Category: draft.Category}, nil
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	created, err := c.Create(context.Background(), expense.Draft{
		Title: "Lunch", Amount: 250, Category: expense.CategoryFood, Date: time.Now(),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, "new", c.Expenses()[0].ID)
	assert.Equal(t, []string{"Expense added!"}, notifier.successes)
}

func Test_OnCreateRecurring_ShouldToastRecurringText(t *testing.T) {
	api := &fakeAPI{}
	c, notifier, _ := newTestCoordinator(t, api, true)

	_, err := c.Create(context.Background(), expense.Draft{
		Title: "Gym", Amount: 900, Category: expense.CategoryHealth, Date: time.Now(),
		IsRecurring: true, RecurringFrequency: expense.Monthly,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Recurring expense added!"}, notifier.successes)
}

func Test_OnCreateValidationFailure_ShouldLeaveStoreUntouched(t *testing.T) {
	api := &fakeAPI{}
	c, notifier, _ := newTestCoordinator(t, api, true)

	_, err := c.Create(context.Background(), expense.Draft{Title: "x"}, nil)

	var fields validate.FieldErrors
	assert.ErrorAs(t, err, &fields)
	assert.Equal(t, 0, api.calls)
	assert.Empty(t, c.Expenses())
	assert.Empty(t, notifier.failures)
}

func Test_OnCreateServerFailure_ShouldKeepStoreAndNotifyServerWords(t *testing.T) {
	api := &fakeAPI{
		createFn: func(_ context.Context, _ string, _ expense.Draft, _ *expenseapi.Receipt) (expense.Expense, error) {
			return expense.Expense{}, &expenseapi.StatusError{Code: http.StatusBadRequest, Message: "Duplicate title"}
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)

	_, err := c.Create(context.Background(), expense.Draft{
		Title: "Lunch", Amount: 250, Category: expense.CategoryFood, Date: time.Now(),
	}, nil)

	assert.Error(t, err)
	assert.Empty(t, c.Expenses())
	assert.Equal(t, []string{"Duplicate title"}, notifier.failures)
	assert.Empty(t, notifier.successes)
}

func Test_OnUnauthorizedAnswer_ShouldExpireSession(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return nil, &expenseapi.StatusError{Code: http.StatusUnauthorized, Message: "jwt expired"}
		},
	}
	c, notifier, state := newTestCoordinator(t, api, true)

	_, err := c.FetchAll(context.Background())

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, c.IsAuthenticated())
	assert.Equal(t, 1, state.clears)
	assert.Equal(t, []string{"Session expired. Please sign in again"}, notifier.failures)
}

func Test_OnReinvokedPendingAction_ShouldBeRejected(t *testing.T) {
	var c *Coordinator
	var inner error
	api := &fakeAPI{
		expensesFn: func(ctx context.Context, _ string) ([]expense.Expense, error) {
			_, inner = c.FetchAll(ctx)
			return nil, nil
		},
	}
	c, _, _ = newTestCoordinator(t, api, true)

	_, err := c.FetchAll(context.Background())

	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrActionPending)
}

func Test_OnDistinctActions_ShouldRunIndependently(t *testing.T) {
	var c *Coordinator
	var inner error
	api := &fakeAPI{
		expensesFn: func(ctx context.Context, _ string) ([]expense.Expense, error) {
			_, inner = c.Analyze(ctx, "what now")
			return nil, nil
		},
	}
	c, _, _ = newTestCoordinator(t, api, true)

	_, err := c.FetchAll(context.Background())

	require.NoError(t, err)
	assert.NoError(t, inner)
}

func Test_OnCompletionAfterLogout_ShouldBeStaleNoOp(t *testing.T) {
	var c *Coordinator
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			c.Logout()
			return []expense.Expense{{ID: "late"}}, nil
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)

	_, err := c.FetchAll(context.Background())

	assert.ErrorIs(t, err, ErrStale)
	assert.Empty(t, c.Expenses())
	assert.NotContains(t, notifier.failures, "Failed to load expenses")
}

func Test_OnFailureAfterLogout_ShouldStaySilent(t *testing.T) {
	var c *Coordinator
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			c.Logout()
			return nil, &expenseapi.StatusError{Code: http.StatusInternalServerError}
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)

	_, err := c.FetchAll(context.Background())

	assert.ErrorIs(t, err, ErrStale)
	assert.Empty(t, notifier.failures)
}

func Test_OnLogout_ShouldClearEverythingAndToast(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{{ID: "e1"}}, nil
		},
	}
	c, notifier, state := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	c.Logout()

	assert.False(t, c.IsAuthenticated())
	assert.Empty(t, c.Expenses())
	assert.Equal(t, 1, state.clears)
	assert.Equal(t, []string{"Logged out successfully"}, notifier.successes)
}

func Test_OnDeleteOne_ShouldRemoveOnlyAfterServerConfirms(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{{ID: "e1"}, {ID: "e2"}}, nil
		},
		deleteFn: func(_ context.Context, _ string, id string) error {
			assert.Equal(t, "e1", id)
			return nil
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.DeleteOne(context.Background(), "e1"))

	assert.Len(t, c.Expenses(), 1)
	assert.Equal(t, "e2", c.Expenses()[0].ID)
	assert.Contains(t, notifier.successes, "Expense deleted")
}

func Test_OnDeleteOneFailure_ShouldKeepRow(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{{ID: "e1"}}, nil
		},
		deleteFn: func(_ context.Context, _ string, _ string) error {
			return &expenseapi.StatusError{Code: http.StatusNotFound, Message: "Expense not found"}
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	err = c.DeleteOne(context.Background(), "e1")

	assert.Error(t, err)
	assert.Len(t, c.Expenses(), 1)
	assert.Equal(t, []string{"Expense not found"}, notifier.failures)
}

func Test_OnDeleteAll_ShouldPreferServerMessage(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{{ID: "e1"}}, nil
		},
		deleteAllFn: func(_ context.Context, _ string) (string, error) {
			return "Deleted 7 expenses", nil
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.DeleteAll(context.Background()))

	assert.Empty(t, c.Expenses())
	assert.Equal(t, []string{"Deleted 7 expenses"}, notifier.successes)
}

func Test_OnDeleteAllWithoutServerMessage_ShouldUseFallbackText(t *testing.T) {
	api := &fakeAPI{}
	c, notifier, _ := newTestCoordinator(t, api, true)

	require.NoError(t, c.DeleteAll(context.Background()))

	assert.Equal(t, []string{"All expenses deleted"}, notifier.successes)
}

func Test_OnUpdateBudget_ShouldMoveCachedLimitOnlyOnSuccess(t *testing.T) {
	api := &fakeAPI{
		budgetFn: func(_ context.Context, _ string, newLimit float64) (string, error) {
			assert.Equal(t, 2500.0, newLimit)
			return "ok", nil
		},
	}
	c, notifier, state := newTestCoordinator(t, api, true)

	require.NoError(t, c.UpdateBudget(context.Background(), 2500))

	assert.Equal(t, 2500.0, c.Session().Profile().BudgetLimit)
	assert.Equal(t, 2500.0, state.sess.Profile().BudgetLimit)
	assert.Contains(t, notifier.successes, "Budget limit updated!")
}

func Test_OnUpdateBudgetFailure_ShouldKeepCachedLimit(t *testing.T) {
	api := &fakeAPI{
		budgetFn: func(_ context.Context, _ string, _ float64) (string, error) {
			return "", &expenseapi.StatusError{Code: http.StatusInternalServerError}
		},
	}
	c, _, _ := newTestCoordinator(t, api, true)

	err := c.UpdateBudget(context.Background(), 2500)

	assert.Error(t, err)
	assert.Equal(t, 1000.0, c.Session().Profile().BudgetLimit)
}

func Test_OnNonPositiveBudget_ShouldFailLocally(t *testing.T) {
	api := &fakeAPI{}
	c, _, _ := newTestCoordinator(t, api, true)

	err := c.UpdateBudget(context.Background(), 0)

	var fields validate.FieldErrors
	assert.ErrorAs(t, err, &fields)
	assert.Equal(t, "Please enter a valid budget amount", fields["budgetLimit"])
	assert.Equal(t, 0, api.calls)
}

func Test_OnExport_ShouldWriteDocumentToDownloads(t *testing.T) {
	api := &fakeAPI{
		exportFn: func(_ context.Context, _ string) (expenseapi.Document, error) {
			return expenseapi.Document{Filename: "report.pdf", Data: []byte("%PDF-1.7")}, nil
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)

	doc, path, err := c.Export(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "report.pdf", filepath.Base(path))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), saved)
	assert.Contains(t, notifier.successes, "Exported: report.pdf")
}

func Test_OnExportServerFailure_ShouldNotifyGenericTextOnly(t *testing.T) {
	api := &fakeAPI{
		exportFn: func(_ context.Context, _ string) (expenseapi.Document, error) {
			return expenseapi.Document{}, &expenseapi.StatusError{Code: http.StatusInternalServerError, Message: "pdf worker crashed"}
		},
	}
	c, notifier, _ := newTestCoordinator(t, api, true)

	_, _, err := c.Export(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []string{"Export failed"}, notifier.failures)
}

func Test_OnAnalyzeBlankQuery_ShouldFailLocally(t *testing.T) {
	api := &fakeAPI{}
	c, _, _ := newTestCoordinator(t, api, true)

	_, err := c.Analyze(context.Background(), "   ")

	var fields validate.FieldErrors
	assert.ErrorAs(t, err, &fields)
	assert.Equal(t, "Please enter a question", fields["query"])
	assert.Equal(t, 0, api.calls)
}

func Test_OnRetryWithoutQuery_ShouldReportNothingToRetry(t *testing.T) {
	c, _, _ := newTestCoordinator(t, &fakeAPI{}, true)

	_, err := c.Retry(context.Background())

	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func Test_OnRetryAfterFailure_ShouldReissueSameQuery(t *testing.T) {
	fail := true
	var queries []string
	api := &fakeAPI{
		analyzeFn: func(_ context.Context, _ string, query string) (string, error) {
			queries = append(queries, query)
			if fail {
				return "", &expenseapi.StatusError{Code: http.StatusBadGateway}
			}
			return "Mostly Food.", nil
		},
	}
	c, _, _ := newTestCoordinator(t, api, true)

	_, err := c.Analyze(context.Background(), "where did my money go")
	assert.Error(t, err)

	fail = false
	answer, err := c.Retry(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Mostly Food.", answer)
	assert.Equal(t, []string{"where did my money go", "where did my money go"}, queries)
}

func Test_OnSetFilter_ShouldNarrowRowsButNotTotals(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{
				{ID: "e1", Amount: 100, Category: expense.CategoryFood},
				{ID: "e2", Amount: 200, Category: expense.CategoryTravel},
			}, nil
		},
	}
	c, _, state := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.SetFilter(expense.CategoryFood))

	assert.Len(t, c.Expenses(), 1)
	assert.Equal(t, 300.0, c.Summary().TotalSpent)
	assert.Equal(t, expense.CategoryFood, state.filter)
}

func Test_OnUnknownFilter_ShouldFailLocally(t *testing.T) {
	c, _, _ := newTestCoordinator(t, &fakeAPI{}, true)

	err := c.SetFilter("Groceries")

	var fields validate.FieldErrors
	assert.ErrorAs(t, err, &fields)
	assert.Equal(t, "all", c.Filter())
}

func Test_OnRestore_ShouldPickUpCachedSessionAndFilter(t *testing.T) {
	state := &fakeState{sess: authedSession(t), filter: expense.CategoryTravel}
	c := New(&fakeAPI{}, &fakeNotifier{}, state, fakeConfig{dir: t.TempDir()})

	assert.True(t, c.IsAuthenticated())
	assert.Equal(t, expense.CategoryTravel, c.Filter())
	assert.Empty(t, c.Expenses())
}

func Test_OnSummary_ShouldRecomputeFromStoreAndCachedLimit(t *testing.T) {
	api := &fakeAPI{
		expensesFn: func(_ context.Context, _ string) ([]expense.Expense, error) {
			return []expense.Expense{
				{Amount: 8450, Category: expense.CategoryFood},
				{Amount: 5100, Category: expense.CategoryTravel},
			}, nil
		},
		budgetFn: func(_ context.Context, _ string, _ float64) (string, error) {
			return "", nil
		},
	}
	c, _, _ := newTestCoordinator(t, api, true)
	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.UpdateBudget(context.Background(), 25000))

	sum := c.Summary()
	assert.Equal(t, 13550.0, sum.TotalSpent)
	assert.Equal(t, 11450.0, sum.Remaining)
	assert.InDelta(t, 54.2, sum.PercentUsed, 0.01)
}

func Test_OnUserMessage_ShouldPreferFieldThenServerThenGeneric(t *testing.T) {
	fields := make(validate.FieldErrors)
	fields.Set("title", "Title is required")
	assert.Equal(t, "title: Title is required", UserMessage(fields, "generic"))

	status := &expenseapi.StatusError{Code: http.StatusBadRequest, Message: "Duplicate title"}
	assert.Equal(t, "Duplicate title", UserMessage(status, "generic"))

	blank := &expenseapi.StatusError{Code: http.StatusInternalServerError}
	assert.Equal(t, "generic", UserMessage(blank, "generic"))

	assert.Equal(t, "generic", UserMessage(assert.AnError, "generic"))
}
