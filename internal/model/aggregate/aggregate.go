package aggregate

import (
	"sort"

	"expensetrack/companion-bot/internal/entity/expense"
)

// Band is the budget severity policy shared by the progress line and
// the explanatory text; both must agree, so there is exactly one
// mapping function.
type Band int

const (
	OnTrack Band = iota
	Warning
	OverBudget
)

func (b Band) String() string {
	switch b {
	case OverBudget:
		return "You've exceeded your budget"
	case Warning:
		return "Warning: Approaching limit"
	default:
		return "On track!"
	}
}

type CategoryTotal struct {
	Category string
	Amount   float64
}

// Summary is a pure derivation of (expenses, budgetLimit). Remaining
// keeps its sign; display-level clamping is the caller's business.
type Summary struct {
	TotalSpent  float64
	Remaining   float64
	PercentUsed float64
	Categories  []CategoryTotal
}

// Summarize computes the dashboard numbers over the full, unfiltered
// list. Category totals keep first-encounter order.
func Summarize(expenses []expense.Expense, budgetLimit float64) Summary {
	sum := Summary{}

	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, e := range expenses {
		sum.TotalSpent += e.Amount
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] += e.Amount
	}

	sum.Remaining = budgetLimit - sum.TotalSpent
	if budgetLimit > 0 {
		sum.PercentUsed = sum.TotalSpent / budgetLimit * 100
	}

	sum.Categories = make([]CategoryTotal, 0, len(order))
	for _, cat := range order {
		sum.Categories = append(sum.Categories, CategoryTotal{Category: cat, Amount: totals[cat]})
	}
	return sum
}

func (s Summary) Band() Band {
	switch {
	case s.PercentUsed > 100:
		return OverBudget
	case s.PercentUsed >= 80:
		return Warning
	default:
		return OnTrack
	}
}

// RemainingDisplay clamps at zero for presentation only.
func (s Summary) RemainingDisplay() float64 {
	if s.Remaining < 0 {
		return 0
	}
	return s.Remaining
}

// ByAmountDesc returns the category totals sorted for the breakdown
// view; the Summary itself keeps first-encounter order.
func (s Summary) ByAmountDesc() []CategoryTotal {
	out := make([]CategoryTotal, len(s.Categories))
	copy(out, s.Categories)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}

const FilterAll = "all"

// Filter narrows the listed rows; it never feeds the totals above.
func Filter(expenses []expense.Expense, category string) []expense.Expense {
	if category == "" || category == FilterAll {
		return expenses
	}
	res := make([]expense.Expense, 0)
	for _, e := range expenses {
		if e.Category == category {
			res = append(res, e)
		}
	}
	return res
}
