package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/model"
)

// LedgerStore holds every statement that touches a member's balance
// counters. Credit and Debit must run on a transaction together with the
// rows that justify them.
type LedgerStore struct {
	q Querier
}

func NewLedgerStore(q Querier) *LedgerStore {
	return &LedgerStore{q: q}
}

// Credit describes one ledger credit in stored units.
type Credit struct {
	FamilyID       int64
	MemberID       int64
	AmountCents    int64
	Reason         model.AwardReason
	SourceRef      *string
	Description    string
	AllowanceCents int
	AwardedBy      *int64
}

const awardCols = `id, uid, family_id, member_id, amount_cents, reason, source_ref, description,
	allowance_cents, awarded_by, created_at`

func scanAward(scanner interface{ Scan(...any) error }) (*model.AwardEvent, error) {
	var e model.AwardEvent
	var amount int64
	var ref sql.NullString
	var awardedBy sql.NullInt64
	err := scanner.Scan(&e.ID, &e.UID, &e.FamilyID, &e.MemberID, &amount, &e.Reason, &ref, &e.Description,
		&e.AllowanceCents, &awardedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Amount = model.DecimalFromCents(amount)
	if ref.Valid {
		r := ref.String
		e.SourceRef = &r
	}
	e.AwardedBy = int64Ptr(awardedBy)
	return &e, nil
}

// Credit increments both counters and appends the matching award event.
// The increment is a single guarded UPDATE, so concurrent credits for the
// same member never lose an update and a member with gamification disabled
// is never touched.
func (s *LedgerStore) Credit(ctx context.Context, c Credit) (*model.AwardEvent, *model.Balance, error) {
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx,
		`UPDATE members
		 SET family_bucks_cents = family_bucks_cents + ?,
		     total_points_earned_cents = total_points_earned_cents + ?,
		     updated_at = ?
		 WHERE id = ? AND family_id = ? AND gamification_enabled = 1`,
		c.AmountCents, c.AmountCents, now, c.MemberID, c.FamilyID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("credit member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		enabled, err := s.gamificationEnabled(ctx, c.FamilyID, c.MemberID)
		if err != nil {
			return nil, nil, err
		}
		if !enabled {
			return nil, nil, apperr.New(apperr.KindGamificationDisabled, "gamification is disabled for member %d", c.MemberID)
		}
		return nil, nil, fmt.Errorf("credit member %d: no rows updated", c.MemberID)
	}

	var ref sql.NullString
	if c.SourceRef != nil {
		ref = sql.NullString{String: *c.SourceRef, Valid: true}
	}
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO award_events (uid, family_id, member_id, amount_cents, reason, source_ref, description,
			allowance_cents, awarded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), c.FamilyID, c.MemberID, c.AmountCents, c.Reason, ref, c.Description,
		c.AllowanceCents, nullInt64(c.AwardedBy), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, apperr.New(apperr.KindConflict, "%s award for %q already recorded", c.Reason, ref.String)
		}
		return nil, nil, fmt.Errorf("insert award event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	bal, err := s.Balance(ctx, c.FamilyID, c.MemberID)
	if err != nil {
		return nil, nil, err
	}
	return event, bal, nil
}

// Debit lowers the spendable balance only. It never drives the balance
// below zero and never touches lifetime points.
func (s *LedgerStore) Debit(ctx context.Context, familyID, memberID, amountCents int64) (*model.Balance, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE members SET family_bucks_cents = family_bucks_cents - ?, updated_at = ?
		 WHERE id = ? AND family_id = ? AND family_bucks_cents >= ?`,
		amountCents, time.Now().UTC(), memberID, familyID, amountCents,
	)
	if err != nil {
		return nil, fmt.Errorf("debit member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// gamificationEnabled reports NotFound for a missing member.
		if _, err := s.gamificationEnabled(ctx, familyID, memberID); err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.KindInsufficientBalance, "insufficient family bucks for member %d", memberID)
	}
	return s.Balance(ctx, familyID, memberID)
}

func (s *LedgerStore) gamificationEnabled(ctx context.Context, familyID, memberID int64) (bool, error) {
	var enabled int
	err := s.q.QueryRowContext(ctx,
		`SELECT gamification_enabled FROM members WHERE id = ? AND family_id = ?`, memberID, familyID,
	).Scan(&enabled)
	if err == sql.ErrNoRows {
		return false, apperr.NotFound("member %d not found", memberID)
	}
	if err != nil {
		return false, fmt.Errorf("get member flags: %w", err)
	}
	return enabled != 0, nil
}

// Balance returns nil when the member is not in the family.
func (s *LedgerStore) Balance(ctx context.Context, familyID, memberID int64) (*model.Balance, error) {
	var bucks, total int64
	err := s.q.QueryRowContext(ctx,
		`SELECT family_bucks_cents, total_points_earned_cents FROM members WHERE id = ? AND family_id = ?`,
		memberID, familyID,
	).Scan(&bucks, &total)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &model.Balance{
		FamilyBucks:       model.DecimalFromCents(bucks),
		TotalPointsEarned: model.DecimalFromCents(total),
	}, nil
}

func (s *LedgerStore) getEvent(ctx context.Context, id int64) (*model.AwardEvent, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+awardCols+` FROM award_events WHERE id = ?`, id)
	e, err := scanAward(row)
	if err != nil {
		return nil, fmt.Errorf("get award event: %w", err)
	}
	return e, nil
}

// EventBySource finds the member's award recorded for a source reference,
// or nil.
func (s *LedgerStore) EventBySource(ctx context.Context, familyID, memberID int64, reason model.AwardReason, ref string) (*model.AwardEvent, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+awardCols+` FROM award_events
		 WHERE family_id = ? AND member_id = ? AND reason = ? AND source_ref = ?`,
		familyID, memberID, reason, ref)
	e, err := scanAward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get award event by source: %w", err)
	}
	return e, nil
}

// ListEvents returns the member's award events, newest first.
func (s *LedgerStore) ListEvents(ctx context.Context, familyID, memberID int64, limit int) ([]model.AwardEvent, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+awardCols+` FROM award_events WHERE family_id = ? AND member_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		familyID, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list award events: %w", err)
	}
	defer rows.Close()

	var events []model.AwardEvent
	for rows.Next() {
		e, err := scanAward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan award event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Totals sums the member's history: every award credited and every
// redemption debited, in stored units.
func (s *LedgerStore) Totals(ctx context.Context, familyID, memberID int64) (awarded, redeemed int64, err error) {
	err = s.q.QueryRowContext(ctx,
		`SELECT
			(SELECT COALESCE(SUM(amount_cents), 0) FROM award_events WHERE family_id = ? AND member_id = ?),
			(SELECT COALESCE(SUM(amount_cents), 0) FROM reward_redemptions WHERE family_id = ? AND member_id = ?)`,
		familyID, memberID, familyID, memberID,
	).Scan(&awarded, &redeemed)
	if err != nil {
		return 0, 0, fmt.Errorf("sum ledger history: %w", err)
	}
	return awarded, redeemed, nil
}

// Leaderboard lists the family's members ordered by lifetime points. Level
// is left for the caller to derive.
func (s *LedgerStore) Leaderboard(ctx context.Context, familyID int64) ([]model.LeaderboardEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, family_bucks_cents, total_points_earned_cents
		 FROM members WHERE family_id = ?
		 ORDER BY total_points_earned_cents DESC, name ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var bucks, total int64
		if err := rows.Scan(&e.MemberID, &e.MemberName, &bucks, &total); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.FamilyBucks = model.DecimalFromCents(bucks)
		e.TotalPointsEarned = model.DecimalFromCents(total)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
