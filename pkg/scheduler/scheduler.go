package scheduler

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
)

const (
	// DefaultWorkHoursPerDay is the productive hours per working day, kept
	// below 8 to leave room for meetings and context switching.
	DefaultWorkHoursPerDay = 6.0
	// DefaultMaxSearchDays bounds the earliest-slot search
	DefaultMaxSearchDays = 365

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Options tunes the scheduler. Zero values fall back to defaults.
type Options struct {
	WorkHoursPerDay float64
	MaxSearchDays   int
}

// Scheduler assigns unscheduled work items to team members. It holds no
// state between calls and is safe for concurrent use.
type Scheduler struct {
	opts Options
}

// NewScheduler creates a new scheduler instance
func NewScheduler(opts Options) *Scheduler {
	if opts.WorkHoursPerDay <= 0 || math.IsNaN(opts.WorkHoursPerDay) || math.IsInf(opts.WorkHoursPerDay, 0) {
		opts.WorkHoursPerDay = DefaultWorkHoursPerDay
	}
	if opts.MaxSearchDays <= 0 {
		opts.MaxSearchDays = DefaultMaxSearchDays
	}
	return &Scheduler{opts: opts}
}

// Options returns the effective options
func (s *Scheduler) Options() Options { return s.opts }

// DurationDays converts an hour estimate into whole working days. Results
// saturate at math.MaxInt32.
func (s *Scheduler) DurationDays(hours float64) int {
	d := math.Ceil(hours / s.opts.WorkHoursPerDay)
	if d > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(d)
}

// Schedule places every eligible item with the least loaded person who has a
// free slot before the item's deadline. Items that cannot be placed are
// reported as conflicts. Inputs are never modified.
func (s *Scheduler) Schedule(items []models.WorkItem, people []models.Person, now time.Time, orgDeadline *time.Time) (models.SchedulingResult, error) {
	if err := Validate(items, people); err != nil {
		return models.SchedulingResult{}, err
	}

	result := models.SchedulingResult{
		Scheduled:       []models.ScheduledItem{},
		Conflicts:       []models.Conflict{},
		WorkloadSummary: make([]models.WorkloadEntry, 0, len(people)),
	}

	l := s.prefill(items)
	from := now.AddDate(0, 0, 1)

	for _, item := range prioritize(items) {
		if item.Pinned() {
			continue
		}

		deadline := item.DueDate
		if deadline == nil {
			deadline = orgDeadline
		}
		days := s.DurationDays(item.Hours())

		var (
			best      *models.Person
			minHours  float64
			bestStart time.Time
			bestEnd   time.Time
		)
		for i := range people {
			p := &people[i]
			start, end, ok := s.earliestSlot(l, p.ID, from, days, deadline)
			if !ok {
				continue
			}
			current := l.hours(p.ID)
			if best == nil || current < minHours {
				best = p
				minHours = current
				bestStart, bestEnd = start, end
			}
		}

		if best == nil {
			issue := "No available team member found"
			if deadline != nil {
				issue = fmt.Sprintf("No available team member before deadline %s", deadline.Format(dateLayout))
			}
			result.Conflicts = append(result.Conflicts, models.Conflict{ItemID: item.ID, Issue: issue})
			continue
		}

		if deadline != nil && bestEnd.After(*deadline) {
			layout := dateLayout
			if sameDay(bestEnd, *deadline) {
				layout = dateTimeLayout
			}
			issue := fmt.Sprintf("Estimated completion %s exceeds deadline %s",
				bestEnd.Format(layout), deadline.Format(layout))
			result.Conflicts = append(result.Conflicts, models.Conflict{ItemID: item.ID, Issue: issue})
		}

		l.add(best.ID, interval{itemID: item.ID, start: bestStart, end: bestEnd, hours: item.Hours()})
		result.Scheduled = append(result.Scheduled, models.ScheduledItem{
			ItemID:         item.ID,
			SuggestedStart: bestStart,
			SuggestedDue:   bestEnd,
			AssignedTo:     best.ID,
			Reason:         fmt.Sprintf("Assigned to least loaded team member (%.1fh current workload)", minHours),
		})
	}

	for _, p := range people {
		result.WorkloadSummary = append(result.WorkloadSummary, models.WorkloadEntry{
			PersonID:   p.ID,
			TotalHours: l.hours(p.ID),
			ItemCount:  len(l[p.ID]),
		})
	}
	return result, nil
}

// prefill records manually pinned items, eligible or not. Pinned items
// without a due date have no interval and are left out.
func (s *Scheduler) prefill(items []models.WorkItem) ledger {
	l := make(ledger)
	for _, it := range items {
		if !it.Pinned() || it.DueDate == nil {
			continue
		}
		l.add(it.Assignee, interval{
			itemID: it.ID,
			start:  *it.StartDate,
			end:    *it.DueDate,
			hours:  it.Hours(),
		})
	}
	return l
}

// earliestSlot finds the first run of days working days starting no earlier
// than from that does not overlap the person's ledger. A slot whose last
// working day falls after the deadline's day ends the search. Items longer
// than the search window never fit.
func (s *Scheduler) earliestSlot(l ledger, personID string, from time.Time, days int, deadline *time.Time) (time.Time, time.Time, bool) {
	if days > s.opts.MaxSearchDays {
		return time.Time{}, time.Time{}, false
	}
	candidate := from
	for i := 0; i < s.opts.MaxSearchDays; i++ {
		if !IsWorkingDay(candidate) {
			candidate = candidate.AddDate(0, 0, 1)
			continue
		}
		if deadline != nil && DayAfter(AddWorkingDays(candidate, days-1), *deadline) {
			return time.Time{}, time.Time{}, false
		}
		end := AddWorkingDays(candidate, days)
		if !l.wouldOverlap(personID, candidate, end) {
			return candidate, end, true
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return time.Time{}, time.Time{}, false
}

// prioritize returns the eligible items ordered by priority weight, then
// earliest due date. Items without a due date sort last within a priority.
func prioritize(items []models.WorkItem) []models.WorkItem {
	eligible := make([]models.WorkItem, 0, len(items))
	for _, it := range items {
		if it.Eligible() {
			eligible = append(eligible, it)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
			return wa > wb
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil:
			return true
		default:
			return false
		}
	})
	return eligible
}
