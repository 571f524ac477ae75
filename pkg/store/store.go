package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/autoscheduler-api-go/pkg/database"
	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
)

// ErrProjectNotFound is returned when a project has neither items nor people
var ErrProjectNotFound = errors.New("project not found")

// Store persists project work items, rosters and schedule runs
type Store struct {
	db *gorm.DB
}

// New creates a Store on an already migrated database
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertItems inserts new items and overwrites existing ones by item id
func (s *Store) UpsertItems(ctx context.Context, projectID string, items []models.WorkItem) error {
	if len(items) == 0 {
		return nil
	}
	records := make([]database.WorkItem, 0, len(items))
	for _, it := range items {
		records = append(records, database.WorkItem{
			ProjectID:      projectID,
			ItemID:         it.ID,
			Title:          it.Title,
			Kind:           string(it.Kind),
			Completed:      it.Completed,
			Priority:       string(it.Priority),
			DueDate:        it.DueDate,
			StartDate:      it.StartDate,
			Assignee:       it.Assignee,
			EstimatedHours: it.EstimatedHours,
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "kind", "completed", "priority", "due_date", "start_date",
			"assignee", "estimated_hours", "updated_at",
		}),
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("upsert items for %s: %w", projectID, err)
	}
	return nil
}

// ReplacePeople swaps the project's roster, keeping the given order
func (s *Store) ReplacePeople(ctx context.Context, projectID string, people []models.Person) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&database.Person{}).Error; err != nil {
			return fmt.Errorf("clear roster for %s: %w", projectID, err)
		}
		if len(people) == 0 {
			return nil
		}
		records := make([]database.Person, 0, len(people))
		for i, p := range people {
			records = append(records, database.Person{
				ProjectID: projectID,
				PersonID:  p.ID,
				Name:      p.Name,
				Email:     p.Email,
				Position:  i,
			})
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("save roster for %s: %w", projectID, err)
		}
		return nil
	})
}

// Load returns a project's items and roster in roster order
func (s *Store) Load(ctx context.Context, projectID string) ([]models.WorkItem, []models.Person, error) {
	db := s.db.WithContext(ctx)

	var itemRecords []database.WorkItem
	if err := db.Where("project_id = ?", projectID).Order("id").Find(&itemRecords).Error; err != nil {
		return nil, nil, fmt.Errorf("load items for %s: %w", projectID, err)
	}
	var personRecords []database.Person
	if err := db.Where("project_id = ?", projectID).Order("position").Find(&personRecords).Error; err != nil {
		return nil, nil, fmt.Errorf("load roster for %s: %w", projectID, err)
	}
	if len(itemRecords) == 0 && len(personRecords) == 0 {
		return nil, nil, ErrProjectNotFound
	}

	items := make([]models.WorkItem, 0, len(itemRecords))
	for _, r := range itemRecords {
		items = append(items, models.WorkItem{
			ID:             r.ItemID,
			Title:          r.Title,
			Kind:           models.Kind(r.Kind),
			Completed:      r.Completed,
			Priority:       models.Priority(r.Priority),
			DueDate:        r.DueDate,
			StartDate:      r.StartDate,
			Assignee:       r.Assignee,
			EstimatedHours: r.EstimatedHours,
		})
	}
	people := make([]models.Person, 0, len(personRecords))
	for _, r := range personRecords {
		people = append(people, models.Person{ID: r.PersonID, Name: r.Name, Email: r.Email})
	}
	return items, people, nil
}

// ApplySchedule writes every scheduled placement back to its item and
// records the run, all in one transaction.
func (s *Store) ApplySchedule(ctx context.Context, projectID string, res models.SchedulingResult, fairness float64, trigger string) (string, error) {
	run, err := newRun(projectID, res, fairness, trigger)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sc := range res.Scheduled {
			start, due := sc.SuggestedStart, sc.SuggestedDue
			upd := tx.Model(&database.WorkItem{}).
				Where("project_id = ? AND item_id = ?", projectID, sc.ItemID).
				Updates(map[string]interface{}{
					"start_date": &start,
					"due_date":   &due,
					"assignee":   sc.AssignedTo,
				})
			if upd.Error != nil {
				return fmt.Errorf("apply %s: %w", sc.ItemID, upd.Error)
			}
			if upd.RowsAffected == 0 {
				return fmt.Errorf("apply %s: item not found in project %s", sc.ItemID, projectID)
			}
		}
		return tx.Create(&run).Error
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// Runs returns the most recent runs of a project, newest first
func (s *Store) Runs(ctx context.Context, projectID string, limit int) ([]database.ScheduleRun, error) {
	var runs []database.ScheduleRun
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at desc").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// ProjectIDs lists every project that has stored work items
func (s *Store) ProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&database.WorkItem{}).
		Distinct("project_id").
		Order("project_id").
		Pluck("project_id", &ids).Error
	return ids, err
}

func newRun(projectID string, res models.SchedulingResult, fairness float64, trigger string) (database.ScheduleRun, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return database.ScheduleRun{}, fmt.Errorf("encode result: %w", err)
	}
	return database.ScheduleRun{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		Trigger:        trigger,
		Applied:        true,
		ScheduledCount: len(res.Scheduled),
		ConflictCount:  len(res.Conflicts),
		FairnessScore:  fairness,
		Result:         string(body),
	}, nil
}
