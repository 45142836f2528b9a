package messages

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"expensetrack/companion-bot/internal/entity/expense"
	"expensetrack/companion-bot/internal/entity/session"
	"expensetrack/companion-bot/internal/model/actions"
)

const (
	helloMessage = "Hello! I am the ExpenseTrack companion bot 🤖\n" +
		"Sign in with /signin <email> <password> or create an account with /signup"
	dontUnderstandMessage = "I don't understand you :("
	loveToTalkMessage     = "I would love to talk about it more! Try /help"
	somethingWrongMessage = "Sorry, something went wrong..."

	signInFirstMessage     = "Please sign in first: /signin <email> <password>"
	alreadySignedInMessage = "You are already signed in. Try /dashboard"
	signedOutMessage       = "Signed out. See you soon!"
	actionPendingMessage   = "That action is still in progress. Give it a second"
	sessionExpiredMessage  = "Your session expired. " + signInFirstMessage

	incorrectUsageMessage = "That is an incorrect command usage"
	incorrectDateMessage  = "The date is incorrect. Should be dd.mm.yyyy"

	confirmDeleteMessage = "Delete this expense? /confirm to proceed, /cancel to keep it"
	confirmWipeMessage   = "Are you sure? This will delete ALL expenses and cannot be undone.\n" +
		"/confirm to proceed, /cancel to abort"
	nothingToConfirmMessage = "Nothing awaiting confirmation"
	cancelledMessage        = "Cancelled. Nothing was deleted"
	nothingToRetryMessage   = "No analysis to retry yet. Ask with /analyze <question>"

	helpMessage = "Commands:\n" +
		"/signin <email> <password>\n" +
		"/signup <name> <email> <password> [budget] [phone]\n" +
		"/dashboard | /list | /filter <category|all>\n" +
		"/add <title> <amount> <category> [date=dd.mm.yyyy] [every=weekly|monthly|yearly] [notes...]\n" +
		"/delete <id> | /deleteall | /confirm | /cancel\n" +
		"/budget <amount> | /export | /analyze <question> | /retry | /logout"
)

const (
	startCommand     = "/start"
	helpCommand      = "/help"
	signinCommand    = "/signin"
	signupCommand    = "/signup"
	logoutCommand    = "/logout"
	dashboardCommand = "/dashboard"
	listCommand      = "/list"
	addCommand       = "/add"
	deleteCommand    = "/delete"
	deleteAllCommand = "/deleteall"
	confirmCommand   = "/confirm"
	cancelCommand    = "/cancel"
	filterCommand    = "/filter"
	budgetCommand    = "/budget"
	exportCommand    = "/export"
	analyzeCommand   = "/analyze"
	retryCommand     = "/retry"
)

type handler func(ctx context.Context, arg string, msg Message) (string, error)

type handlerMap map[string]handler

// confirmKind is the pending-confirmation panel: delete actions only
// run after an explicit /confirm. Clearing it with /cancel never
// touches any in-flight request.
type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmOne
	confirmAll
)

type HandlerService struct {
	handlersMap handlerMap
	sender      messageSender
	coordinator *actions.Coordinator

	pendingConfirm confirmKind
	pendingID      string
}

func newHandler(sender messageSender, coordinator *actions.Coordinator) *HandlerService {
	res := &HandlerService{
		handlersMap: nil,
		sender:      sender,
		coordinator: coordinator,
	}
	res.handlersMap = newMap(res)
	return res
}

func newMap(s *HandlerService) handlerMap {
	m := make(handlerMap)
	m[startCommand] = s.handleStart
	m[helpCommand] = s.handleHelp
	m[signinCommand] = s.guestOnly(s.handleSignin)
	m[signupCommand] = s.guestOnly(s.handleSignup)
	m[logoutCommand] = s.protected(s.handleLogout)
	m[dashboardCommand] = s.protected(s.handleDashboard)
	m[listCommand] = s.protected(s.handleList)
	m[addCommand] = s.protected(s.handleAdd)
	m[deleteCommand] = s.protected(s.handleDelete)
	m[deleteAllCommand] = s.protected(s.handleDeleteAll)
	m[confirmCommand] = s.protected(s.handleConfirm)
	m[cancelCommand] = s.protected(s.handleCancel)
	m[filterCommand] = s.protected(s.handleFilter)
	m[budgetCommand] = s.protected(s.handleBudget)
	m[exportCommand] = s.protected(s.handleExport)
	m[analyzeCommand] = s.protected(s.handleAnalyze)
	m[retryCommand] = s.protected(s.handleRetry)

	m[""] = s.handleNoCommand

	return m
}

func (s *HandlerService) HandleMessage(ctx context.Context, msg Message) (string, error) {
	cmd, arg := parseCommand(msg.Text)

	handler, ok := s.handlersMap[cmd]
	if ok {
		return handler(ctx, arg, msg)
	}
	return dontUnderstandMessage, nil
}

// guestOnly redirects an authenticated caller to the dashboard, the
// way the sign-in screen bounces a signed-in visitor.
func (s *HandlerService) guestOnly(h handler) handler {
	return func(ctx context.Context, arg string, msg Message) (string, error) {
		if s.coordinator.IsAuthenticated() {
			return alreadySignedInMessage, nil
		}
		return h(ctx, arg, msg)
	}
}

// protected bounces an unauthenticated caller to sign-in. Presence of
// a token is the whole check; an expired one surfaces later as an
// auth failure from the backend.
func (s *HandlerService) protected(h handler) handler {
	return func(ctx context.Context, arg string, msg Message) (string, error) {
		if !s.coordinator.IsAuthenticated() {
			return signInFirstMessage, nil
		}
		return h(ctx, arg, msg)
	}
}

func (s *HandlerService) handleStart(_ context.Context, _ string, _ Message) (string, error) {
	if s.coordinator.IsAuthenticated() {
		return "Welcome back, " + s.coordinator.Session().Profile().Name + "! Try /dashboard", nil
	}
	return helloMessage, nil
}

func (s *HandlerService) handleHelp(_ context.Context, _ string, _ Message) (string, error) {
	return helpMessage, nil
}

func (s *HandlerService) handleNoCommand(_ context.Context, _ string, _ Message) (string, error) {
	return loveToTalkMessage, nil
}

func (s *HandlerService) handleSignin(ctx context.Context, arg string, _ Message) (string, error) {
	args := strings.Fields(arg)
	if len(args) != 2 {
		return incorrectUsageMessage + "\nUsage: /signin <email> <password>", nil
	}

	sess, err := s.coordinator.Login(ctx, session.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return replyForError(err, "Login failed"), errors.Wrap(err, "handle signin")
	}
	return "Welcome back, " + sess.Profile().Name + "! Try /dashboard", nil
}

func (s *HandlerService) handleSignup(ctx context.Context, arg string, _ Message) (string, error) {
	form, parseErr := parseSignupForm(arg)
	if parseErr != "" {
		return parseErr, nil
	}

	sess, err := s.coordinator.Signup(ctx, form)
	if err != nil {
		return replyForError(err, "Signup failed"), errors.Wrap(err, "handle signup")
	}
	return "Account created. Welcome, " + sess.Profile().Name + "! Try /dashboard", nil
}

func (s *HandlerService) handleLogout(_ context.Context, _ string, _ Message) (string, error) {
	s.pendingConfirm = confirmNone
	s.pendingID = ""
	s.coordinator.Logout()
	return signedOutMessage, nil
}

// handleDashboard is the protected landing view: a full fetch (the
// reconciliation point for the local cache) followed by the derived
// numbers and the filtered rows.
func (s *HandlerService) handleDashboard(ctx context.Context, _ string, _ Message) (string, error) {
	if _, err := s.coordinator.FetchAll(ctx); err != nil {
		return replyForError(err, "Failed to load expenses"), errors.Wrap(err, "handle dashboard")
	}
	return s.renderDashboard(), nil
}

// handleList renders from the store without a network round trip.
func (s *HandlerService) handleList(_ context.Context, _ string, _ Message) (string, error) {
	return renderRows(s.coordinator.Expenses(), s.coordinator.Filter()), nil
}

func (s *HandlerService) handleAdd(ctx context.Context, arg string, msg Message) (string, error) {
	draft, parseErr := parseDraft(arg)
	if parseErr != "" {
		return parseErr, nil
	}

	created, err := s.coordinator.Create(ctx, draft, msg.Attachment)
	if err != nil {
		return replyForError(err, "Failed to add expense"), errors.Wrap(err, "handle add")
	}
	return "Added " + renderRow(created) + "\n\n" + s.renderTotals(), nil
}

func (s *HandlerService) handleDelete(_ context.Context, arg string, _ Message) (string, error) {
	id := strings.TrimSpace(arg)
	if id == "" {
		return incorrectUsageMessage + "\nUsage: /delete <id>", nil
	}
	s.pendingConfirm = confirmOne
	s.pendingID = id
	return confirmDeleteMessage, nil
}

func (s *HandlerService) handleDeleteAll(_ context.Context, _ string, _ Message) (string, error) {
	s.pendingConfirm = confirmAll
	s.pendingID = ""
	return confirmWipeMessage, nil
}

func (s *HandlerService) handleConfirm(ctx context.Context, _ string, _ Message) (string, error) {
	kind, id := s.pendingConfirm, s.pendingID
	s.pendingConfirm = confirmNone
	s.pendingID = ""

	switch kind {
	case confirmOne:
		if err := s.coordinator.DeleteOne(ctx, id); err != nil {
			return replyForError(err, "Failed to delete expense"), errors.Wrap(err, "handle confirm")
		}
		return s.renderTotals(), nil
	case confirmAll:
		if err := s.coordinator.DeleteAll(ctx); err != nil {
			return replyForError(err, "Failed to delete all expenses"), errors.Wrap(err, "handle confirm")
		}
		return s.renderTotals(), nil
	default:
		return nothingToConfirmMessage, nil
	}
}

func (s *HandlerService) handleCancel(_ context.Context, _ string, _ Message) (string, error) {
	if s.pendingConfirm == confirmNone {
		return nothingToConfirmMessage, nil
	}
	s.pendingConfirm = confirmNone
	s.pendingID = ""
	return cancelledMessage, nil
}

func (s *HandlerService) handleFilter(_ context.Context, arg string, _ Message) (string, error) {
	choice := strings.TrimSpace(arg)
	if choice == "" {
		return "Current filter: " + s.coordinator.Filter() +
			"\nPick one of: all, " + strings.Join(expense.Categories, ", "), nil
	}
	if err := s.coordinator.SetFilter(choice); err != nil {
		return replyForError(err, "Failed to set filter"), errors.Wrap(err, "handle filter")
	}
	return renderRows(s.coordinator.Expenses(), s.coordinator.Filter()), nil
}

func (s *HandlerService) handleBudget(ctx context.Context, arg string, _ Message) (string, error) {
	amount, ok := parseAmount(strings.TrimSpace(arg))
	if !ok {
		return "Please enter a valid budget amount", nil
	}
	if err := s.coordinator.UpdateBudget(ctx, amount); err != nil {
		return replyForError(err, "Failed to update budget"), errors.Wrap(err, "handle budget")
	}
	return s.renderTotals(), nil
}

func (s *HandlerService) handleExport(ctx context.Context, _ string, msg Message) (string, error) {
	doc, path, err := s.coordinator.Export(ctx)
	if err != nil {
		// the export error body is never rendered
		reply := "Export failed"
		switch {
		case errors.Is(err, actions.ErrSessionExpired):
			reply = sessionExpiredMessage
		case errors.Is(err, actions.ErrActionPending):
			reply = actionPendingMessage
		}
		return reply, errors.Wrap(err, "handle export")
	}
	if err = s.sender.SendDocument(doc.Filename, doc.Data, msg.UserID); err != nil {
		return "Saved to " + path, errors.Wrap(err, "handle export")
	}
	return "Saved to " + path, nil
}

func (s *HandlerService) handleAnalyze(ctx context.Context, arg string, _ Message) (string, error) {
	answer, err := s.coordinator.Analyze(ctx, arg)
	if err != nil {
		return replyForError(err, "Analysis failed") + "\nUse /retry to try again", errors.Wrap(err, "handle analyze")
	}
	return answer, nil
}

func (s *HandlerService) handleRetry(ctx context.Context, _ string, _ Message) (string, error) {
	answer, err := s.coordinator.Retry(ctx)
	if errors.Is(err, actions.ErrNothingToRetry) {
		return nothingToRetryMessage, nil
	}
	if err != nil {
		return replyForError(err, "Analysis failed") + "\nUse /retry to try again", errors.Wrap(err, "handle retry")
	}
	return answer, nil
}

// replyForError turns an action failure into the inline reply. The
// transient notification for the same failure is the coordinator's
// job; both fire on purpose.
func replyForError(err error, generic string) string {
	switch {
	case errors.Is(err, actions.ErrSessionExpired):
		return sessionExpiredMessage
	case errors.Is(err, actions.ErrActionPending):
		return actionPendingMessage
	case errors.Is(err, actions.ErrStale):
		return somethingWrongMessage
	default:
		return actions.UserMessage(err, generic)
	}
}

func (s *HandlerService) renderDashboard() string {
	sum := s.coordinator.Summary()
	parts := []string{
		s.renderTotals(),
		renderBreakdown(sum),
		renderRows(s.coordinator.Expenses(), s.coordinator.Filter()),
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func (s *HandlerService) renderTotals() string {
	sum := s.coordinator.Summary()
	limit := s.coordinator.Session().Profile().BudgetLimit
	return renderTotals(sum, limit)
}
