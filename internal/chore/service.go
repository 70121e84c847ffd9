package chore

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/ledger"
	"github.com/dukerupert/homebase/internal/metrics"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/store"
)

// Service runs the chore workflow: definitions, assignments and the
// assigned -> completed -> verified/rejected lifecycle.
type Service struct {
	db         *sql.DB
	chores     *store.ChoreStore
	families   *store.FamilyStore
	ledger     *ledger.Service
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(db *sql.DB, ledgerSvc *ledger.Service, dispatcher notify.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	return &Service{
		db:         db,
		chores:     store.NewChoreStore(db),
		families:   store.NewFamilyStore(db),
		ledger:     ledgerSvc,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.With("component", "chore"),
		now:        time.Now,
	}
}

// LedgerDelta describes the credit applied by an approval.
type LedgerDelta struct {
	AwardEventID      int64           `json:"award_event_id"`
	Amount            decimal.Decimal `json:"amount"`
	FamilyBucks       decimal.Decimal `json:"family_bucks"`
	TotalPointsEarned decimal.Decimal `json:"total_points_earned"`
}

type VerifyResult struct {
	Assignment  *model.Assignment `json:"assignment"`
	LedgerDelta *LedgerDelta      `json:"ledger_delta,omitempty"`
}

// DeleteResult reports what a chore deletion took with it.
type DeleteResult struct {
	DiscardedAssignments int `json:"discarded_assignments"`
}

func validateChore(in *model.ChoreInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.InvalidInput("title is required")
	}
	if in.Difficulty == "" {
		in.Difficulty = model.DifficultyEasy
	}
	if !in.Difficulty.Valid() {
		return apperr.InvalidInput("unknown difficulty %q", in.Difficulty)
	}
	if in.PointsReward != nil && *in.PointsReward < 0 {
		return apperr.InvalidInput("points reward cannot be negative")
	}
	if in.AllowanceCents < 0 {
		return apperr.InvalidInput("allowance cannot be negative")
	}
	if in.EstimatedMinutes < 0 {
		return apperr.InvalidInput("estimated minutes cannot be negative")
	}
	return nil
}

func (s *Service) CreateChore(ctx context.Context, caller auth.AuthContext, in model.ChoreInput) (*model.Chore, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can create chores")
	}
	if err := validateChore(&in); err != nil {
		return nil, err
	}
	by := caller.MemberID
	c, err := s.chores.Create(ctx, caller.FamilyID, &by, in)
	if err != nil {
		return nil, err
	}
	s.dispatchChore(ctx, caller, notify.ActionCreated, c.ID)
	return c, nil
}

func (s *Service) UpdateChore(ctx context.Context, caller auth.AuthContext, id int64, in model.ChoreInput) (*model.Chore, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can edit chores")
	}
	if err := validateChore(&in); err != nil {
		return nil, err
	}
	if _, err := s.GetChore(ctx, caller, id); err != nil {
		return nil, err
	}
	c, err := s.chores.Update(ctx, caller.FamilyID, id, in)
	if err != nil {
		return nil, err
	}
	s.dispatchChore(ctx, caller, notify.ActionUpdated, id)
	return c, nil
}

func (s *Service) GetChore(ctx context.Context, caller auth.AuthContext, id int64) (*model.Chore, error) {
	c, err := s.chores.GetByID(ctx, caller.FamilyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("chore %d not found", id)
	}
	return c, nil
}

func (s *Service) ListChores(ctx context.Context, caller auth.AuthContext) ([]model.Chore, error) {
	return s.chores.List(ctx, caller.FamilyID)
}

// DeleteChore removes a chore together with its assignments. Award events
// already credited for it are kept.
func (s *Service) DeleteChore(ctx context.Context, caller auth.AuthContext, id int64) (*DeleteResult, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can delete chores")
	}
	var open int
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cs := store.NewChoreStore(tx)
		c, err := cs.GetByID(ctx, caller.FamilyID, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("chore %d not found", id)
		}
		open, err = cs.Delete(ctx, caller.FamilyID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if open > 0 {
		s.logger.Warn("chore deleted with open assignments",
			"family_id", caller.FamilyID,
			"chore_id", id,
			"discarded", open,
		)
	}
	s.dispatchChore(ctx, caller, notify.ActionDeleted, id)
	return &DeleteResult{DiscardedAssignments: open}, nil
}

// Assign gives a chore to one member of the caller's family.
func (s *Service) Assign(ctx context.Context, caller auth.AuthContext, choreID, assigneeID int64, due *time.Time) (*model.Assignment, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can assign chores")
	}
	if _, err := s.GetChore(ctx, caller, choreID); err != nil {
		return nil, err
	}
	m, err := s.families.GetMember(ctx, caller.FamilyID, assigneeID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("member %d not found", assigneeID)
	}

	by := caller.MemberID
	a, err := s.chores.CreateAssignment(ctx, caller.FamilyID, choreID, assigneeID, &by, due)
	if err != nil {
		return nil, err
	}
	s.dispatchAssignment(ctx, a, notify.ActionCreated, nil)
	return a, nil
}

func (s *Service) GetAssignment(ctx context.Context, caller auth.AuthContext, id int64) (*model.Assignment, error) {
	a, err := s.chores.GetAssignment(ctx, caller.FamilyID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("assignment %d not found", id)
	}
	return a, nil
}

func (s *Service) ListAssignments(ctx context.Context, caller auth.AuthContext, f model.AssignmentFilter) ([]model.Assignment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.InvalidInput("unknown status %q", f.Status)
	}
	return s.chores.ListAssignments(ctx, caller.FamilyID, f)
}

// Complete marks an assignment done. The assignee or a parent may do it.
func (s *Service) Complete(ctx context.Context, caller auth.AuthContext, id int64) (*model.Assignment, error) {
	a, err := s.GetAssignment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsParent() && caller.MemberID != a.AssignedTo {
		return nil, apperr.Forbidden("only the assignee or a parent can complete this chore")
	}
	to, err := Next(a.Status, EventComplete)
	if err != nil {
		return nil, err
	}

	ok, err := s.chores.MarkCompleted(ctx, caller.FamilyID, id, caller.MemberID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, s.chores, caller.FamilyID, id, EventComplete)
	}

	s.metrics.ObserveTransition(string(a.Status), string(to))
	done, err := s.GetAssignment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignment completed", "family_id", caller.FamilyID, "assignment_id", id, "by", caller.MemberID)
	s.dispatchAssignment(ctx, done, notify.ActionCompleted, nil)
	return done, nil
}

// Verify records a parent's review of a completed assignment. Approval
// moves it to verified and credits the assignee in the same transaction;
// rejection leaves the ledger untouched.
func (s *Service) Verify(ctx context.Context, caller auth.AuthContext, id int64, approved bool, reason string) (*VerifyResult, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can review chores")
	}
	ev := reviewEvent(approved)

	var (
		result VerifyResult
		from   model.AssignmentStatus
		to     model.AssignmentStatus
		award  *model.AwardEvent
		bal    *model.Balance
	)
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cs := store.NewChoreStore(tx)
		a, err := cs.GetAssignment(ctx, caller.FamilyID, id)
		if err != nil {
			return err
		}
		if a == nil {
			return apperr.NotFound("assignment %d not found", id)
		}
		from = a.Status
		if to, err = Next(a.Status, ev); err != nil {
			return err
		}

		now := s.now()
		var ok bool
		if approved {
			ok, err = cs.MarkVerified(ctx, caller.FamilyID, id, caller.MemberID, now)
		} else {
			ok, err = cs.MarkRejected(ctx, caller.FamilyID, id, caller.MemberID, strings.TrimSpace(reason), now)
		}
		if err != nil {
			return err
		}
		if !ok {
			return s.lostRace(ctx, cs, caller.FamilyID, id, ev)
		}

		if approved {
			award, bal, err = s.credit(ctx, tx, caller, a)
			if err != nil {
				return err
			}
		}

		result.Assignment, err = cs.GetAssignment(ctx, caller.FamilyID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(to))
	extra := map[string]any{}
	if award != nil {
		s.ledger.Announce(ctx, award, bal)
		result.LedgerDelta = &LedgerDelta{
			AwardEventID:      award.ID,
			Amount:            award.Amount,
			FamilyBucks:       bal.FamilyBucks,
			TotalPointsEarned: bal.TotalPointsEarned,
		}
		extra["amount"] = award.Amount.String()
	}
	action := notify.ActionVerified
	if !approved {
		action = notify.ActionRejected
		extra["reason"] = result.Assignment.RejectionReason
	}
	s.logger.Info("assignment reviewed",
		"family_id", caller.FamilyID,
		"assignment_id", id,
		"approved", approved,
		"by", caller.MemberID,
	)
	s.dispatchAssignment(ctx, result.Assignment, action, extra)
	return &result, nil
}

// credit applies the approval credit for a. The chore's own reward wins
// when it is set and positive; otherwise the assignee's per-task default
// applies.
func (s *Service) credit(ctx context.Context, tx *sql.Tx, caller auth.AuthContext, a *model.Assignment) (*model.AwardEvent, *model.Balance, error) {
	c, err := store.NewChoreStore(tx).GetByID(ctx, caller.FamilyID, a.ChoreID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, apperr.NotFound("chore %d not found", a.ChoreID)
	}
	m, err := store.NewFamilyStore(tx).GetMember(ctx, caller.FamilyID, a.AssignedTo)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, apperr.NotFound("member %d not found", a.AssignedTo)
	}

	return s.ledger.CreditTx(ctx, tx, caller, ledger.Award{
		MemberID:       a.AssignedTo,
		Amount:         decimal.NewFromInt(int64(CreditFor(c, m))),
		Reason:         model.ReasonChoreVerified,
		SourceRef:      strconv.FormatInt(a.ID, 10),
		Description:    c.Title,
		AllowanceCents: c.AllowanceCents,
	})
}

// CreditFor returns the points an approval of c earns m.
func CreditFor(c *model.Chore, m *model.Member) int {
	if c.PointsReward != nil && *c.PointsReward > 0 {
		return *c.PointsReward
	}
	return m.PointsPerTask
}

// Reassign sends a rejected assignment back to the assignee.
func (s *Service) Reassign(ctx context.Context, caller auth.AuthContext, id int64, due *time.Time) (*model.Assignment, error) {
	if !caller.IsParent() {
		return nil, apperr.Forbidden("only a parent can reassign chores")
	}
	a, err := s.GetAssignment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	to, err := Next(a.Status, EventReassign)
	if err != nil {
		return nil, err
	}
	ok, err := s.chores.Reopen(ctx, caller.FamilyID, id, due, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, s.chores, caller.FamilyID, id, EventReassign)
	}

	s.metrics.ObserveTransition(string(a.Status), string(to))
	reopened, err := s.GetAssignment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	s.dispatchAssignment(ctx, reopened, notify.ActionReassigned, nil)
	return reopened, nil
}

// lostRace explains a compare-and-set that matched no row: the assignment
// moved or vanished after it was read.
func (s *Service) lostRace(ctx context.Context, cs *store.ChoreStore, familyID, id int64, ev Event) error {
	a, err := cs.GetAssignment(ctx, familyID, id)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("assignment %d not found", id)
	}
	if _, err := Next(a.Status, ev); err != nil {
		return err
	}
	return apperr.New(apperr.KindInvalidStateTransition, "assignment %d changed while being updated", id)
}

func (s *Service) dispatchChore(ctx context.Context, caller auth.AuthContext, action string, id int64) {
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityChore,
		Action:   action,
		FamilyID: caller.FamilyID,
		MemberID: caller.MemberID,
		EntityID: id,
	})
}

func (s *Service) dispatchAssignment(ctx context.Context, a *model.Assignment, action string, extra map[string]any) {
	if extra == nil {
		extra = map[string]any{}
	}
	extra["chore_title"] = a.ChoreTitle
	extra["status"] = string(a.Status)
	s.dispatcher.Dispatch(ctx, notify.Event{
		Entity:   notify.EntityAssignment,
		Action:   action,
		FamilyID: a.FamilyID,
		MemberID: a.AssignedTo,
		EntityID: a.ID,
		Extra:    extra,
	})
}
