package store

import (
	"expensetrack/companion-bot/internal/entity/expense"
)

// ExpenseStore holds the session's expense list in memory. It is the
// only source the aggregate calculator reads from; mutations are
// synchronous and never perform I/O. Identifier uniqueness is assumed,
// not enforced: a duplicate id from the server keeps both copies.
type ExpenseStore struct {
	expenses []expense.Expense
}

func NewExpenseStore() *ExpenseStore {
	return &ExpenseStore{expenses: make([]expense.Expense, 0)}
}

// ReplaceAll swaps the whole list, as after a full fetch. No merging.
func (s *ExpenseStore) ReplaceAll(list []expense.Expense) {
	s.expenses = make([]expense.Expense, len(list))
	copy(s.expenses, list)
}

// Prepend inserts at the front regardless of date: list order is
// insertion order, not date order.
func (s *ExpenseStore) Prepend(e expense.Expense) {
	s.expenses = append([]expense.Expense{e}, s.expenses...)
}

// RemoveByID drops every record with the given id. Absent ids are a
// no-op, so the operation is idempotent.
func (s *ExpenseStore) RemoveByID(id string) {
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
}

func (s *ExpenseStore) Clear() {
	s.expenses = s.expenses[:0]
}

// List returns a copy; callers cannot mutate the store through it.
func (s *ExpenseStore) List() []expense.Expense {
	out := make([]expense.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

func (s *ExpenseStore) Len() int {
	return len(s.expenses)
}
