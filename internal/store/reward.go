package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/homebase/internal/model"
)

type RewardStore struct {
	q Querier
}

func NewRewardStore(q Querier) *RewardStore {
	return &RewardStore{q: q}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var cost int64
	var active int

	err := scanner.Scan(&r.ID, &r.FamilyID, &r.Title, &r.Description, &cost, &active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Cost = model.DecimalFromCents(cost)
	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, family_id, title, description, cost_cents, active, created_at`

func (s *RewardStore) Create(ctx context.Context, familyID int64, title, description string, costCents int64, active bool) (*model.Reward, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO rewards (family_id, title, description, cost_cents, active) VALUES (?, ?, ?, ?, ?)`,
		familyID, title, description, costCents, boolInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, familyID, id)
}

func (s *RewardStore) GetByID(ctx context.Context, familyID, id int64) (*model.Reward, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ? AND family_id = ?`, id, familyID)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

func (s *RewardStore) List(ctx context.Context, familyID int64, activeOnly bool) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE family_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	rows, err := s.q.QueryContext(ctx, query+` ORDER BY cost_cents ASC, title ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Delete(ctx context.Context, familyID, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM rewards WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.RewardRedemption, error) {
	var r model.RewardRedemption
	var rewardID sql.NullInt64
	var amount int64

	err := scanner.Scan(&r.ID, &r.FamilyID, &rewardID, &r.MemberID, &amount, &r.Title, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.RewardID = int64Ptr(rewardID)
	r.Amount = model.DecimalFromCents(amount)
	return &r, nil
}

const redemptionCols = `id, family_id, reward_id, member_id, amount_cents, title, created_at`

// CreateRedemption records a spend. The matching debit is the caller's job
// and belongs in the same transaction.
func (s *RewardStore) CreateRedemption(ctx context.Context, familyID int64, rewardID *int64, memberID, amountCents int64, title string) (*model.RewardRedemption, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO reward_redemptions (family_id, reward_id, member_id, amount_cents, title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, nullInt64(rewardID), memberID, amountCents, title, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

func (s *RewardStore) ListRedemptionsByMember(ctx context.Context, familyID, memberID int64) ([]model.RewardRedemption, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE family_id = ? AND member_id = ?
		 ORDER BY created_at DESC, id DESC`,
		familyID, memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions by member: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
