package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance-tracker/internal/models"
)

const goalColumns = `id, user_id, amount, goal_name, start_date, end_date, created_date, updated_date, parent_goal_id`

// CreateGoal inserts a new goal. The creation time comes from the storage
// clock; updated_date stays NULL until UpdateGoal runs.
func (db *DB) CreateGoal(ctx context.Context, userID int64, amount float64, name, startDate, endDate string, parentGoalID *int64) (*models.Goal, error) {
	created := db.timestamp()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO goals (user_id, amount, goal_name, start_date, end_date, created_date, parent_goal_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, amount, name, startDate, endDate, created, nullInt64(parentGoalID),
	)
	if err != nil {
		return nil, classify("create goal", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, classify("create goal", err)
	}

	return &models.Goal{
		ID:           id,
		UserID:       userID,
		Amount:       amount,
		Name:         name,
		StartDate:    startDate,
		EndDate:      endDate,
		CreatedDate:  created,
		ParentGoalID: parentGoalID,
	}, nil
}

// GetGoal retrieves a single goal by ID.
func (db *DB) GetGoal(ctx context.Context, id int64) (*models.Goal, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id)

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify("get goal", err)
	}
	return g, nil
}

// GetUserGoals lists the user's goals in insertion order.
func (db *DB) GetUserGoals(ctx context.Context, userID int64) ([]models.Goal, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, classify("list goals", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, classify("list goals", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list goals", err)
	}

	return goals, nil
}

// UpdateGoal overwrites the editable fields of a goal and stamps updated_date.
func (db *DB) UpdateGoal(ctx context.Context, g *models.Goal) (*models.Goal, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE goals SET amount = ?, goal_name = ?, start_date = ?, end_date = ?, parent_goal_id = ?, updated_date = ?
		WHERE id = ?`,
		g.Amount, g.Name, g.StartDate, g.EndDate, nullInt64(g.ParentGoalID), db.timestamp(), g.ID,
	)
	if err != nil {
		return nil, classify("update goal", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, classify("update goal", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("goal %d: %w", g.ID, ErrNotFound)
	}

	return db.GetGoal(ctx, g.ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (*models.Goal, error) {
	var g models.Goal
	var updated sql.NullTime
	var parent sql.NullInt64
	if err := s.Scan(&g.ID, &g.UserID, &g.Amount, &g.Name, &g.StartDate, &g.EndDate, &g.CreatedDate, &updated, &parent); err != nil {
		return nil, err
	}
	if updated.Valid {
		t := updated.Time
		g.UpdatedDate = &t
	}
	if parent.Valid {
		p := parent.Int64
		g.ParentGoalID = &p
	}
	return &g, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
