package ledger

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Service is the only code path that changes a member's Family Bucks or
// lifetime points.
type Service struct {
	db         *sql.DB
	families   *store.FamilyStore
	ledger     *store.LedgerStore
	rewards    *store.RewardStore
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(db *sql.DB, dispatcher notify.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	return &Service{
		db:         db,
		families:   store.NewFamilyStore(db),
		ledger:     store.NewLedgerStore(db),
		rewards:    store.NewRewardStore(db),
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.With("component", "ledger"),
	}
}

// Award is a request to credit one member.
type Award struct {
	MemberID       int64
	Amount         decimal.Decimal
	Reason         model.AwardReason
	SourceRef      string
	Description    string
	AllowanceCents int
}

// AwardResult is the outcome of AwardPoints. Duplicate is set when a
// task completion with the same source reference was already credited; the
// ledger is then unchanged and Event is the original award.
type AwardResult struct {
	Event     *model.AwardEvent `json:"event"`
	Balance   *model.Balance    `json:"balance"`
	Duplicate bool              `json:"duplicate,omitempty"`
}

// CreditTx applies an award inside tx. Callers own the transaction and must
// call Announce once it commits.
func (s *Service) CreditTx(ctx context.Context, tx *sql.Tx, caller auth.AuthContext, a Award) (*model.AwardEvent, *model.Balance, error) {
	if err := ValidateAmount(a.Amount); err != nil {
		return nil, nil, err
	}
	if !a.Reason.Valid() {
		return nil, nil, apperr.InvalidInput("unknown award reason %q", a.Reason)
	}

	c := store.Credit{
		FamilyID:       caller.FamilyID,
		MemberID:       a.MemberID,
		AmountCents:    model.CentsFromDecimal(a.Amount),
		Reason:         a.Reason,
		Description:    a.Description,
		AllowanceCents: a.AllowanceCents,
	}
	if a.SourceRef != "" {
		ref := a.SourceRef
		c.SourceRef = &ref
	}
	if caller.MemberID != 0 {
		by := caller.MemberID
		c.AwardedBy = &by
	}
	return store.NewLedgerStore(tx).Credit(ctx, c)
}

// Announce records metrics and dispatches the credit after its transaction
// has committed.
func (s *Service) Announce(ctx context.Context, event *model.AwardEvent, bal *model.Balance) {
	amount, _ := event.Amount.Float64()
	s.metrics.ObserveAward(string(event.Reason), amount)
	s.logger.Info("points awarded",
		"family_id", event.FamilyID,
		"member_id", event.MemberID,
		"amount", event.Amount.String(),
		"reason", event.Reason,
	)
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityLedger,
		Action:   notify.ActionCredited,
		FamilyID: event.FamilyID,
		MemberID: event.MemberID,
		EntityID: event.ID,
		Extra: map[string]any{
			"amount":              event.Amount.String(),
			"reason":              string(event.Reason),
			"family_bucks":        bal.FamilyBucks.String(),
			"total_points_earned": bal.TotalPointsEarned.String(),
		},
	})
}

// AwardPoints credits a member directly. Manual awards need a parent;
// task completions may be posted by the member for themself. An award with
// a source reference is idempotent per member: repeating it returns the
// member's original event. Chore credits only come from verification.
func (s *Service) AwardPoints(ctx context.Context, caller auth.AuthContext, a Award) (*AwardResult, error) {
	if err := ValidateAmount(a.Amount); err != nil {
		return nil, err
	}
	switch a.Reason {
	case model.ReasonManualAward:
		if !caller.IsParent() {
			return nil, apperr.Forbidden("only a parent can award points")
		}
	case model.ReasonTaskCompleted:
		if !caller.IsParent() && caller.MemberID != a.MemberID {
			return nil, apperr.Forbidden("members can only record their own task completions")
		}
	case model.ReasonChoreVerified:
		return nil, apperr.InvalidInput("chore credits are applied by verifying the assignment")
	default:
		return nil, apperr.InvalidInput("unknown award reason %q", a.Reason)
	}

	member, err := s.families.GetMember(ctx, caller.FamilyID, a.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperr.NotFound("member %d not found", a.MemberID)
	}
	if !member.GamificationEnabled {
		return nil, apperr.New(apperr.KindGamificationDisabled, "gamification is disabled for %s", member.Name)
	}

	var result AwardResult
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if a.SourceRef != "" {
			ls := store.NewLedgerStore(tx)
			prior, err := ls.EventBySource(ctx, caller.FamilyID, a.MemberID, a.Reason, a.SourceRef)
			if err != nil {
				return err
			}
			if prior != nil {
				bal, err := ls.Balance(ctx, caller.FamilyID, a.MemberID)
				if err != nil {
					return err
				}
				result = AwardResult{Event: prior, Balance: bal, Duplicate: true}
				return nil
			}
		}
		event, bal, err := s.CreditTx(ctx, tx, caller, a)
		if err != nil {
			return err
		}
		result = AwardResult{Event: event, Balance: bal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.Announce(ctx, result.Event, result.Balance)
	}
	return &result, nil
}

// GetState returns the member's balances with the derived level figures.
func (s *Service) GetState(ctx context.Context, caller auth.AuthContext, memberID int64) (*model.GamificationState, error) {
	m, err := s.families.GetMember(ctx, caller.FamilyID, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("member %d not found", memberID)
	}
	return StateOf(m), nil
}

// StateOf derives the dashboard view of a member's ledger account.
func StateOf(m *model.Member) *model.GamificationState {
	percent, toNext := ComputeProgress(m.TotalPointsEarned)
	return &model.GamificationState{
		MemberID:            m.ID,
		FamilyBucks:         m.FamilyBucks,
		TotalPointsEarned:   m.TotalPointsEarned,
		Level:               ComputeLevel(m.TotalPointsEarned),
		ProgressPercent:     percent,
		PointsToNextLevel:   toNext,
		GamificationEnabled: m.GamificationEnabled,
		PointsPerTask:       m.PointsPerTask,
	}
}

// ConfigureMember applies a partial settings update. Parent only.
func (s *Service) ConfigureMember(ctx context.Context, caller auth.AuthContext, memberID int64, settings model.MemberSettings) (*model.Member, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can change gamification settings")
	}
	if p := settings.PointsPerTask; p != nil && (*p < MinPointsPerTask || *p > MaxPointsPerTask) {
		return nil, apperr.InvalidInput("points per task must be between %d and %d, got %d", MinPointsPerTask, MaxPointsPerTask, *p)
	}
	if settings.AllowedPages != nil {
		pages, err := normalizePages(*settings.AllowedPages)
		if err != nil {
			return nil, err
		}
		settings.AllowedPages = &pages
	}

	existing, err := s.families.GetMember(ctx, caller.FamilyID, memberID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("member %d not found", memberID)
	}

	m, err := s.families.UpdateSettings(ctx, caller.FamilyID, memberID, settings)
	if err != nil {
		return nil, err
	}

	s.logger.Info("member configured", "family_id", caller.FamilyID, "member_id", memberID, "by", caller.MemberID)
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityMember,
		Action:   notify.ActionConfigured,
		FamilyID: caller.FamilyID,
		MemberID: memberID,
		EntityID: memberID,
	})
	return m, nil
}

// History lists a member's award events, newest first. Members may read
// their own; parents may read anyone's.
func (s *Service) History(ctx context.Context, caller auth.AuthContext, memberID int64, limit int) ([]model.AwardEvent, error) {
	if !caller.IsParent() && caller.MemberID != memberID {
		return nil, apperr.Forbidden("cannot view another member's history")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	m, err := s.families.GetMember(ctx, caller.FamilyID, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("member %d not found", memberID)
	}
	return s.ledger.ListEvents(ctx, caller.FamilyID, memberID, limit)
}

// Leaderboard ranks the caller's family by lifetime points.
func (s *Service) Leaderboard(ctx context.Context, caller auth.AuthContext) ([]model.LeaderboardEntry, error) {
	entries, err := s.ledger.Leaderboard(ctx, caller.FamilyID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Level = ComputeLevel(entries[i].TotalPointsEarned)
	}
	return entries, nil
}

// Reconcile recomputes a member's balances from the award and redemption
// history and compares them with the stored counters.
func (s *Service) Reconcile(ctx context.Context, caller auth.AuthContext, memberID int64) (*model.Reconciliation, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can reconcile the ledger")
	}

	var rec *model.Reconciliation
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ls := store.NewLedgerStore(tx)
		bal, err := ls.Balance(ctx, caller.FamilyID, memberID)
		if err != nil {
			return err
		}
		if bal == nil {
			return apperr.NotFound("member %d not found", memberID)
		}
		awarded, redeemed, err := ls.Totals(ctx, caller.FamilyID, memberID)
		if err != nil {
			return err
		}
		expected := model.DecimalFromCents(awarded - redeemed)
		rec = &model.Reconciliation{
			MemberID:      memberID,
			StoredBucks:   bal.FamilyBucks,
			StoredTotal:   bal.TotalPointsEarned,
			Awarded:       model.DecimalFromCents(awarded),
			Redeemed:      model.DecimalFromCents(redeemed),
			ExpectedBucks: expected,
		}
		rec.Balanced = bal.FamilyBucks.Equal(expected) && bal.TotalPointsEarned.Equal(rec.Awarded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !rec.Balanced {
		s.logger.Warn("ledger drift",
			"family_id", caller.FamilyID,
			"member_id", memberID,
			"stored_bucks", rec.StoredBucks.String(),
			"expected_bucks", rec.ExpectedBucks.String(),
			"stored_total", rec.StoredTotal.String(),
			"awarded", rec.Awarded.String(),
		)
	}
	return rec, nil
}
