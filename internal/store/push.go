package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/homebase/internal/model"
)

type PushStore struct {
	q Querier
}

func NewPushStore(q Querier) *PushStore {
	return &PushStore{q: q}
}

const subscriptionCols = `id, member_id, family_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.MemberID, &sub.FamilyID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription upserts by endpoint: a browser re-subscribing moves the
// endpoint to the new member and keys.
func (s *PushStore) CreateSubscription(ctx context.Context, memberID, familyID int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO push_subscriptions (member_id, family_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET member_id = excluded.member_id, family_id = excluded.family_id,
		 	p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, device_name = excluded.device_name`,
		memberID, familyID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	// LastInsertId is unreliable on the update branch; re-query by endpoint.
	row := s.q.QueryRowContext(ctx, `SELECT `+subscriptionCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return sub, nil
}

func (s *PushStore) GetByID(ctx context.Context, familyID, id int64) (*model.PushSubscription, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE id = ? AND family_id = ?`, id, familyID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

// ListByMembers returns every subscription owned by the given members.
func (s *PushStore) ListByMembers(ctx context.Context, familyID int64, memberIDs []int64) ([]model.PushSubscription, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(memberIDs)), ", ")
	args := []any{familyID}
	for _, id := range memberIDs {
		args = append(args, id)
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+subscriptionCols+` FROM push_subscriptions
		 WHERE family_id = ? AND member_id IN (`+placeholders+`) ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by member: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) DeleteSubscription(ctx context.Context, familyID, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
