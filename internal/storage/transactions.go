package storage

import (
	"context"
	"database/sql"

	"finance-tracker/internal/models"
)

// CreateTransaction inserts a new transaction for the user.
func (db *DB) CreateTransaction(ctx context.Context, userID int64, txType string, amount float64, date, description string) (*models.Transaction, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO transactions (user_id, transaction_type, amount, transaction_date, description)
		VALUES (?, ?, ?, ?, ?)`,
		userID, txType, amount, date, nullString(description),
	)
	if err != nil {
		return nil, classify("create transaction", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, classify("create transaction", err)
	}

	return &models.Transaction{
		ID:          id,
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Date:        date,
		Description: description,
	}, nil
}

// GetAllUserTransactions lists the user's transactions in insertion order.
// A user without transactions gets an empty slice.
func (db *DB) GetAllUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, transaction_type, amount, transaction_date, description
		FROM transactions WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, classify("list transactions", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Date, &desc); err != nil {
			return nil, classify("list transactions", err)
		}
		t.Description = desc.String
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list transactions", err)
	}

	return transactions, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
