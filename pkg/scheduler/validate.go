package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
)

// ErrInvalidInput is wrapped by every ValidationError
var ErrInvalidInput = errors.New("invalid scheduling input")

// ValidationError describes malformed scheduler input
type ValidationError struct {
	Entity string // "item" or "person"
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.ID, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Validate checks items and people for contract violations. Items that are
// merely ineligible are not errors.
func Validate(items []models.WorkItem, people []models.Person) error {
	itemIDs := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" {
			return &ValidationError{Entity: "item", Reason: "id is required"}
		}
		if itemIDs[it.ID] {
			return &ValidationError{Entity: "item", ID: it.ID, Reason: "duplicate id"}
		}
		itemIDs[it.ID] = true

		if !it.Kind.Valid() {
			return &ValidationError{Entity: "item", ID: it.ID, Reason: fmt.Sprintf("unknown kind %q", it.Kind)}
		}
		if it.Priority.Weight() == 0 {
			return &ValidationError{Entity: "item", ID: it.ID, Reason: fmt.Sprintf("unknown priority %q", it.Priority)}
		}
		if h := it.EstimatedHours; h != nil && (math.IsNaN(*h) || math.IsInf(*h, 0)) {
			return &ValidationError{Entity: "item", ID: it.ID, Reason: "estimated hours must be finite"}
		}
	}

	personIDs := make(map[string]bool, len(people))
	for _, p := range people {
		if p.ID == "" {
			return &ValidationError{Entity: "person", Reason: "id is required"}
		}
		if personIDs[p.ID] {
			return &ValidationError{Entity: "person", ID: p.ID, Reason: "duplicate id"}
		}
		personIDs[p.ID] = true
	}
	return nil
}

// InputStats counts how a batch of items will be treated
type InputStats struct {
	Total      int `json:"total"`
	Eligible   int `json:"eligible"`
	Pinned     int `json:"pinned"`
	Ineligible int `json:"ineligible"`
}

// Summarize classifies items without scheduling them
func Summarize(items []models.WorkItem) InputStats {
	stats := InputStats{Total: len(items)}
	for _, it := range items {
		switch {
		case it.Eligible() && it.Pinned():
			stats.Pinned++
		case it.Eligible():
			stats.Eligible++
		default:
			stats.Ineligible++
		}
	}
	return stats
}
