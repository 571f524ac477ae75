package models

import "time"

// Kind classifies a work item
type Kind string

const (
	KindDelegable Kind = "delegable"
	KindPersonal  Kind = "personal"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindDelegable || k == KindPersonal
}

// Priority of a work item
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight returns the sort weight of the priority, 0 when unknown
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// WorkItem represents a unit of schedulable work
type WorkItem struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title,omitempty" yaml:"title,omitempty"`
	Kind           Kind       `json:"kind" yaml:"kind"`
	Completed      bool       `json:"completed" yaml:"completed"`
	Priority       Priority   `json:"priority" yaml:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	Assignee       string     `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty"`
}

// Pinned reports whether start date and assignee were both fixed before scheduling
func (w WorkItem) Pinned() bool {
	return w.StartDate != nil && w.Assignee != ""
}

// Hours returns the estimate, or 0 when none is set
func (w WorkItem) Hours() float64 {
	if w.EstimatedHours == nil {
		return 0
	}
	return *w.EstimatedHours
}

// Eligible reports whether the item qualifies for automatic placement
func (w WorkItem) Eligible() bool {
	return w.Kind == KindDelegable && !w.Completed && w.Hours() > 0
}

// Person represents a team member that can receive work
type Person struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// ScheduledItem is a placement suggested by the scheduler
type ScheduledItem struct {
	ItemID         string    `json:"item_id"`
	SuggestedStart time.Time `json:"suggested_start"`
	SuggestedDue   time.Time `json:"suggested_due"`
	AssignedTo     string    `json:"assigned_to"`
	Reason         string    `json:"reason"`
}

// Conflict represents why an item could not be placed cleanly
type Conflict struct {
	ItemID string `json:"item_id"`
	Issue  string `json:"issue"`
}

// WorkloadEntry summarises one person's ledger after scheduling
type WorkloadEntry struct {
	PersonID   string  `json:"person_id"`
	TotalHours float64 `json:"total_hours"`
	ItemCount  int     `json:"item_count"`
}

// SchedulingResult is the output of a scheduling pass
type SchedulingResult struct {
	Scheduled       []ScheduledItem `json:"scheduled"`
	Conflicts       []Conflict      `json:"conflicts"`
	WorkloadSummary []WorkloadEntry `json:"workload_summary"`
}

// ScheduleInput is the data structure for the scheduling endpoint
type ScheduleInput struct {
	Items       []WorkItem `json:"items" yaml:"items"`
	People      []Person   `json:"people" yaml:"people"`
	Now         *time.Time `json:"now,omitempty" yaml:"now,omitempty"`
	OrgDeadline *time.Time `json:"org_deadline,omitempty" yaml:"org_deadline,omitempty"`
}

// ScheduleResponse is the data structure for the scheduling result
type ScheduleResponse struct {
	SchedulingResult
	FairnessScore float64 `json:"fairness_score"`
	RunID         string  `json:"run_id,omitempty"`
	Applied       bool    `json:"applied"`
}
