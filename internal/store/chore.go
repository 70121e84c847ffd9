package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/homebase/internal/model"
)

type ChoreStore struct {
	q Querier
}

func NewChoreStore(q Querier) *ChoreStore {
	return &ChoreStore{q: q}
}

// --- Chore definitions ---

const choreCols = `id, family_id, title, description, points_reward, allowance_cents, category, difficulty,
	estimated_minutes, icon, created_by, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var reward, createdBy sql.NullInt64
	err := scanner.Scan(&c.ID, &c.FamilyID, &c.Title, &c.Description, &reward, &c.AllowanceCents, &c.Category,
		&c.Difficulty, &c.EstimatedMinutes, &c.Icon, &createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reward.Valid {
		r := int(reward.Int64)
		c.PointsReward = &r
	}
	c.CreatedBy = int64Ptr(createdBy)
	return &c, nil
}

func nullReward(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func (s *ChoreStore) Create(ctx context.Context, familyID int64, createdBy *int64, in model.ChoreInput) (*model.Chore, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO chores (family_id, title, description, points_reward, allowance_cents, category, difficulty,
			estimated_minutes, icon, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		familyID, in.Title, in.Description, nullReward(in.PointsReward), in.AllowanceCents, in.Category,
		in.Difficulty, in.EstimatedMinutes, in.Icon, nullInt64(createdBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, familyID, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, familyID, id int64) (*model.Chore, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ? AND family_id = ?`, id, familyID)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) List(ctx context.Context, familyID int64) ([]model.Chore, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE family_id = ? ORDER BY title ASC, id ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(ctx context.Context, familyID, id int64, in model.ChoreInput) (*model.Chore, error) {
	_, err := s.q.ExecContext(ctx,
		`UPDATE chores SET title = ?, description = ?, points_reward = ?, allowance_cents = ?, category = ?,
			difficulty = ?, estimated_minutes = ?, icon = ?, updated_at = ?
		 WHERE id = ? AND family_id = ?`,
		in.Title, in.Description, nullReward(in.PointsReward), in.AllowanceCents, in.Category,
		in.Difficulty, in.EstimatedMinutes, in.Icon, time.Now().UTC(), id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, familyID, id)
}

// Delete removes the chore and, by cascade, its assignments. It returns the
// number of assignments that had not reached verified.
func (s *ChoreStore) Delete(ctx context.Context, familyID, id int64) (int, error) {
	var open int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chore_assignments WHERE chore_id = ? AND family_id = ? AND status != 'verified'`,
		id, familyID,
	).Scan(&open)
	if err != nil {
		return 0, fmt.Errorf("count open assignments: %w", err)
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM chores WHERE id = ? AND family_id = ?`, id, familyID); err != nil {
		return 0, fmt.Errorf("delete chore: %w", err)
	}
	return open, nil
}

// --- Assignments ---

const assignmentCols = `a.id, a.family_id, a.chore_id, c.title, a.assigned_to, a.assigned_by, a.due_date, a.status,
	a.completed_at, a.completed_by, a.reviewed_at, a.reviewed_by, a.rejection_reason, a.created_at, a.updated_at`

const assignmentFrom = ` FROM chore_assignments a JOIN chores c ON c.id = a.chore_id`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var assignedBy, completedBy, reviewedBy sql.NullInt64
	var due, completedAt, reviewedAt sql.NullTime
	err := scanner.Scan(&a.ID, &a.FamilyID, &a.ChoreID, &a.ChoreTitle, &a.AssignedTo, &assignedBy, &due, &a.Status,
		&completedAt, &completedBy, &reviewedAt, &reviewedBy, &a.RejectionReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AssignedBy = int64Ptr(assignedBy)
	a.DueDate = timePtr(due)
	a.CompletedAt = timePtr(completedAt)
	a.CompletedBy = int64Ptr(completedBy)
	a.ReviewedAt = timePtr(reviewedAt)
	a.ReviewedBy = int64Ptr(reviewedBy)
	return &a, nil
}

func (s *ChoreStore) CreateAssignment(ctx context.Context, familyID, choreID, assignedTo int64, assignedBy *int64, due *time.Time) (*model.Assignment, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO chore_assignments (family_id, chore_id, assigned_to, assigned_by, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, choreID, assignedTo, nullInt64(assignedBy), nullTime(due), model.StatusAssigned,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAssignment(ctx, familyID, id)
}

func (s *ChoreStore) GetAssignment(ctx context.Context, familyID, id int64) (*model.Assignment, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+assignmentCols+assignmentFrom+` WHERE a.id = ? AND a.family_id = ?`, id, familyID)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *ChoreStore) ListAssignments(ctx context.Context, familyID int64, f model.AssignmentFilter) ([]model.Assignment, error) {
	where := []string{"a.family_id = ?"}
	args := []any{familyID}
	if f.AssignedTo != 0 {
		where = append(where, "a.assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.ChoreID != 0 {
		where = append(where, "a.chore_id = ?")
		args = append(args, f.ChoreID)
	}
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, f.Status)
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+assignmentCols+assignmentFrom+` WHERE `+strings.Join(where, " AND ")+
			` ORDER BY a.due_date IS NULL, a.due_date ASC, a.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var list []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// The transition methods below are compare-and-set updates: each applies
// only when the row is still in the expected source status and reports
// whether it did.

func (s *ChoreStore) MarkCompleted(ctx context.Context, familyID, id, completedBy int64, at time.Time) (bool, error) {
	return s.transition(ctx, familyID, id, model.StatusAssigned, at,
		`status = 'completed', completed_at = ?, completed_by = ?`, at.UTC(), completedBy)
}

func (s *ChoreStore) MarkVerified(ctx context.Context, familyID, id, reviewedBy int64, at time.Time) (bool, error) {
	return s.transition(ctx, familyID, id, model.StatusCompleted, at,
		`status = 'verified', reviewed_at = ?, reviewed_by = ?, rejection_reason = ''`, at.UTC(), reviewedBy)
}

func (s *ChoreStore) MarkRejected(ctx context.Context, familyID, id, reviewedBy int64, reason string, at time.Time) (bool, error) {
	return s.transition(ctx, familyID, id, model.StatusCompleted, at,
		`status = 'rejected', reviewed_at = ?, reviewed_by = ?, rejection_reason = ?`, at.UTC(), reviewedBy, reason)
}

// Reopen moves a rejected assignment back to assigned, clearing completion
// and review fields. A nil due date keeps the existing one.
func (s *ChoreStore) Reopen(ctx context.Context, familyID, id int64, due *time.Time, at time.Time) (bool, error) {
	return s.transition(ctx, familyID, id, model.StatusRejected, at,
		`status = 'assigned', completed_at = NULL, completed_by = NULL, reviewed_at = NULL, reviewed_by = NULL,
		 rejection_reason = '', due_date = COALESCE(?, due_date)`, nullTime(due))
}

func (s *ChoreStore) transition(ctx context.Context, familyID, id int64, from model.AssignmentStatus, at time.Time, set string, args ...any) (bool, error) {
	args = append(args, at.UTC(), id, familyID, from)
	result, err := s.q.ExecContext(ctx,
		`UPDATE chore_assignments SET `+set+`, updated_at = ? WHERE id = ? AND family_id = ? AND status = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("update assignment status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
