package core

import (
	"errors"
	"strings"
	"time"
)

type (
	UserID     int64
	GroupID    int64
	CategoryID int64

	// User is an opaque chat identity. Created on first interaction, never deleted.
	User struct {
		ID UserID
	}

	// Group is a shared ledger. Soft-deleted groups keep their expenses and
	// categories for history but disappear from listings.
	Group struct {
		ID     GroupID
		Name   string
		Active bool
	}

	// Category is an expense bucket scoped to exactly one group. Names are
	// unique within a group's active set.
	Category struct {
		ID     CategoryID
		Name   string
		Group  GroupID
		Active bool
	}

	Money struct {
		Units int64
	}

	// Expense is the fundamental fact record. CreatedAt is assigned by the
	// storage layer at insert time and is zero before that.
	Expense struct {
		ID        int64
		Amount    Money
		Category  Category
		User      UserID
		Group     GroupID
		Comment   string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrMissingCategory  = errors.New("missing category")
	ErrMissingUser      = errors.New("missing user")
	ErrMissingGroup     = errors.New("missing group")
	ErrInvalidCutoffDay = errors.New("cutoff day must be between 1 and 31")
)

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Thousands returns the amount scaled for "k" display in itemized and trend
// views. Totals render raw units; the mixed scaling is inherited policy.
func (m Money) Thousands() float64 {
	return float64(m.Units) / 1000.0
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Group <= 0 {
		return ErrMissingGroup
	}
	return nil
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Category.ID <= 0 {
		return ErrMissingCategory
	}
	if e.User <= 0 {
		return ErrMissingUser
	}
	if e.Group <= 0 {
		return ErrMissingGroup
	}
	return nil
}
