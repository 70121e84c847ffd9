package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Chore is a reusable chore definition owned by one family.
type Chore struct {
	ID               int64      `json:"id"`
	FamilyID         int64      `json:"family_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	PointsReward     *int       `json:"points_reward"`
	AllowanceCents   int        `json:"allowance_cents"`
	Category         string     `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Icon             string     `json:"icon"`
	CreatedBy        *int64     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ChoreInput carries the editable fields of a chore definition.
type ChoreInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	PointsReward     *int       `json:"points_reward"`
	AllowanceCents   int        `json:"allowance_cents"`
	Category         string     `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Icon             string     `json:"icon"`
}

type AssignmentStatus string

const (
	StatusAssigned  AssignmentStatus = "assigned"
	StatusCompleted AssignmentStatus = "completed"
	StatusVerified  AssignmentStatus = "verified"
	StatusRejected  AssignmentStatus = "rejected"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusAssigned, StatusCompleted, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Assignment is one instance of a chore given to one member.
type Assignment struct {
	ID              int64            `json:"id"`
	FamilyID        int64            `json:"family_id"`
	ChoreID         int64            `json:"chore_id"`
	ChoreTitle      string           `json:"chore_title"`
	AssignedTo      int64            `json:"assigned_to"`
	AssignedBy      *int64           `json:"assigned_by"`
	DueDate         *time.Time       `json:"due_date"`
	Status          AssignmentStatus `json:"status"`
	CompletedAt     *time.Time       `json:"completed_at"`
	CompletedBy     *int64           `json:"completed_by"`
	ReviewedAt      *time.Time       `json:"reviewed_at"`
	ReviewedBy      *int64           `json:"reviewed_by"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AssignmentFilter narrows an assignment listing. Zero values match all.
type AssignmentFilter struct {
	AssignedTo int64
	ChoreID    int64
	Status     AssignmentStatus
}
