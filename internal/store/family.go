package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/model"
)

type FamilyStore struct {
	q Querier
}

func NewFamilyStore(q Querier) *FamilyStore {
	return &FamilyStore{q: q}
}

func (s *FamilyStore) CreateFamily(ctx context.Context, name string) (*model.Family, error) {
	result, err := s.q.ExecContext(ctx, `INSERT INTO families (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetFamily(ctx, id)
}

func (s *FamilyStore) GetFamily(ctx context.Context, id int64) (*model.Family, error) {
	var f model.Family
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM families WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return &f, nil
}

const memberCols = `id, family_id, name, role, color, avatar_emoji, pin IS NOT NULL, sort_order,
	family_bucks_cents, total_points_earned_cents, points_per_task, gamification_enabled,
	allowed_pages, created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var bucks, total int64
	var enabled int
	var pages string
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.Name, &m.Role, &m.Color, &m.AvatarEmoji, &m.HasPIN, &m.SortOrder,
		&bucks, &total, &m.PointsPerTask, &enabled, &pages, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.FamilyBucks = model.DecimalFromCents(bucks)
	m.TotalPointsEarned = model.DecimalFromCents(total)
	m.GamificationEnabled = enabled != 0
	m.AllowedPages = []string{}
	if pages != "" {
		if err := json.Unmarshal([]byte(pages), &m.AllowedPages); err != nil {
			return nil, fmt.Errorf("decode allowed pages: %w", err)
		}
	}
	return &m, nil
}

// CreateMember appends a member to the end of the family's sort order.
// A duplicate name within the family is reported as a Conflict.
func (s *FamilyStore) CreateMember(ctx context.Context, familyID int64, name, role, color, avatarEmoji string) (*model.Member, error) {
	var maxOrder int
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) FROM members WHERE family_id = ?`, familyID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.q.ExecContext(ctx,
		`INSERT INTO members (family_id, name, role, color, avatar_emoji, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, name, role, color, avatarEmoji, maxOrder+1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "member %q already exists", name)
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMember(ctx, familyID, id)
}

// GetMember returns nil when the member does not exist or belongs to
// another family.
func (s *FamilyStore) GetMember(ctx context.Context, familyID, id int64) (*model.Member, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+memberCols+` FROM members WHERE id = ? AND family_id = ?`, id, familyID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *FamilyStore) ListMembers(ctx context.Context, familyID int64) ([]model.Member, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+memberCols+` FROM members WHERE family_id = ? ORDER BY sort_order, id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListParentIDs returns the ids of every parent or admin in the family.
func (s *FamilyStore) ListParentIDs(ctx context.Context, familyID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id FROM members WHERE family_id = ? AND role IN ('parent', 'admin') ORDER BY id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list parent ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan parent id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateSettings applies the non-nil fields of settings. Validation is the
// caller's job; the schema CHECK on points_per_task is the backstop.
func (s *FamilyStore) UpdateSettings(ctx context.Context, familyID, id int64, settings model.MemberSettings) (*model.Member, error) {
	var sets []string
	var args []any
	if settings.GamificationEnabled != nil {
		sets = append(sets, "gamification_enabled = ?")
		args = append(args, boolInt(*settings.GamificationEnabled))
	}
	if settings.PointsPerTask != nil {
		sets = append(sets, "points_per_task = ?")
		args = append(args, *settings.PointsPerTask)
	}
	if settings.AllowedPages != nil {
		pages, err := json.Marshal(*settings.AllowedPages)
		if err != nil {
			return nil, fmt.Errorf("encode allowed pages: %w", err)
		}
		sets = append(sets, "allowed_pages = ?")
		args = append(args, string(pages))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC(), id, familyID)
		_, err := s.q.ExecContext(ctx,
			`UPDATE members SET `+strings.Join(sets, ", ")+` WHERE id = ? AND family_id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update member settings: %w", err)
		}
	}
	return s.GetMember(ctx, familyID, id)
}

func (s *FamilyStore) DeleteMember(ctx context.Context, familyID, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM members WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *FamilyStore) SetPIN(ctx context.Context, familyID, id int64, hashedPIN string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE members SET pin = ?, updated_at = ? WHERE id = ? AND family_id = ?`,
		hashedPIN, time.Now().UTC(), id, familyID)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *FamilyStore) ClearPIN(ctx context.Context, familyID, id int64) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE members SET pin = NULL, updated_at = ? WHERE id = ? AND family_id = ?`,
		time.Now().UTC(), id, familyID)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns "" when the member has no PIN.
func (s *FamilyStore) GetPINHash(ctx context.Context, familyID, id int64) (string, error) {
	var pin sql.NullString
	err := s.q.QueryRowContext(ctx,
		`SELECT pin FROM members WHERE id = ? AND family_id = ?`, id, familyID,
	).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return pin.String, nil
}
