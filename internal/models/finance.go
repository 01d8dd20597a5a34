package models

import "time"

// DateLayout is the calendar date format used for transaction and goal dates.
const DateLayout = "2006-01-02"

// User represents a user account.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Transaction represents an income or expense entry.
// Expenses carry a negative Amount, income a positive one.
type Transaction struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
}

// IsIncome reports whether the transaction adds money.
func (t Transaction) IsIncome() bool {
	return t.Amount > 0
}

// Goal represents a savings goal. A goal may hang under a parent goal.
type Goal struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Amount       float64    `json:"amount"`
	Name         string     `json:"goal_name"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	CreatedDate  time.Time  `json:"created_date"`
	UpdatedDate  *time.Time `json:"updated_date,omitempty"`
	ParentGoalID *int64     `json:"parent_goal_id,omitempty"`
}
