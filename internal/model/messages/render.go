package messages

import (
	"fmt"
	"strings"

	"expensetrack/companion-bot/internal/entity/expense"
	"expensetrack/companion-bot/internal/model/aggregate"
)

const (
	noExpensesMessage       = "No expenses yet. Add one to get started!"
	noExpensesInCategoryFmt = "No expenses in %s category."
)

func formatMoney(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

func renderRow(e expense.Expense) string {
	row := fmt.Sprintf("%s: %s (%s, %s)", e.Title, formatMoney(e.Amount), e.Category, e.Date.Format(dateLayout))
	if e.IsRecurring {
		row += " 🔁 " + e.RecurringFrequency
	}
	if e.ReceiptURL != "" {
		row += " 🧾"
	}
	return row
}

func renderRows(list []expense.Expense, filter string) string {
	if len(list) == 0 {
		if filter == aggregate.FilterAll {
			return noExpensesMessage
		}
		return fmt.Sprintf(noExpensesInCategoryFmt, filter)
	}

	header := "Recent Expenses:"
	if filter != aggregate.FilterAll {
		header = filter + " Expenses:"
	}

	lines := make([]string, 0, len(list)+1)
	lines = append(lines, header)
	for i, e := range list {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, renderRow(e)))
		if e.Notes != "" {
			lines = append(lines, "   "+e.Notes)
		}
		lines = append(lines, "   id: "+e.ID)
	}
	return strings.Join(lines, "\n")
}

func renderTotals(sum aggregate.Summary, limit float64) string {
	lines := []string{
		"Total Spent: " + formatMoney(sum.TotalSpent),
		"Budget Limit: " + formatMoney(limit),
		"Remaining: " + formatMoney(sum.RemainingDisplay()),
		fmt.Sprintf("Budget used: %.1f%%", sum.PercentUsed),
		sum.Band().String(),
	}
	return strings.Join(lines, "\n")
}

func renderBreakdown(sum aggregate.Summary) string {
	ranked := sum.ByAmountDesc()
	if len(ranked) == 0 || sum.TotalSpent <= 0 {
		return ""
	}

	lines := make([]string, 0, len(ranked)+1)
	lines = append(lines, "Spending by Category:")
	for _, c := range ranked {
		share := c.Amount / sum.TotalSpent * 100
		lines = append(lines, fmt.Sprintf("%s: %s (%.1f%% of total)", c.Category, formatMoney(c.Amount), share))
	}
	return strings.Join(lines, "\n")
}
