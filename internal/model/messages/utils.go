package messages

import (
	"strconv"
	"strings"
	"time"

	"expensetrack/companion-bot/internal/entity/expense"
	"expensetrack/companion-bot/internal/entity/session"
)

const dateLayout = "02.01.2006"

const commandParts = 2

const incorrectAmountMessage = "Your expense amount is incorrect"

func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	split := strings.SplitN(text, " ", commandParts)

	if len(split) == commandParts {
		return split[0], split[1]
	}
	if strings.HasPrefix(text, "/") {
		return text, ""
	}
	return "", text
}

func parseAmount(s string) (float64, bool) {
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// parseDraft reads `/add <title> <amount> <category>` plus optional
// `date=dd.mm.yyyy` and `every=<frequency>` tokens; leftover words
// become the notes. A non-empty second result is the usage reply.
func parseDraft(arg string) (expense.Draft, string) {
	args := strings.Fields(arg)
	if len(args) < 3 {
		return expense.Draft{}, incorrectUsageMessage +
			"\nUsage: /add <title> <amount> <category> [date=dd.mm.yyyy] [every=weekly|monthly|yearly] [notes...]"
	}

	amount, ok := parseAmount(args[1])
	if !ok {
		return expense.Draft{}, incorrectAmountMessage
	}

	draft := expense.Draft{
		Title:    args[0],
		Amount:   amount,
		Category: args[2],
		Date:     time.Now(),
	}

	notes := make([]string, 0)
	for _, tok := range args[3:] {
		switch {
		case strings.HasPrefix(tok, "date="):
			date, err := time.ParseInLocation(dateLayout, strings.TrimPrefix(tok, "date="), time.Local)
			if err != nil {
				return expense.Draft{}, incorrectDateMessage
			}
			draft.Date = date
		case strings.HasPrefix(tok, "every="):
			draft.IsRecurring = true
			draft.RecurringFrequency = strings.TrimPrefix(tok, "every=")
		default:
			notes = append(notes, tok)
		}
	}
	draft.Notes = strings.Join(notes, " ")
	return draft, ""
}

// parseSignupForm reads `/signup <name> <email> <password>` with an
// optional budget number and an optional +phone token in any order.
func parseSignupForm(arg string) (session.SignupForm, string) {
	args := strings.Fields(arg)
	if len(args) < 3 {
		return session.SignupForm{}, incorrectUsageMessage +
			"\nUsage: /signup <name> <email> <password> [budget] [phone]"
	}

	form := session.SignupForm{Name: args[0], Email: args[1], Password: args[2]}
	for _, tok := range args[3:] {
		if strings.HasPrefix(tok, "+") {
			form.PhoneNumber = tok
			continue
		}
		if v, ok := parseAmount(tok); ok {
			form.BudgetLimit = v
			form.HasBudget = true
			continue
		}
		form.PhoneNumber = tok
	}
	return form, ""
}
