package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
)

// ScheduleJSON previews a schedule for the posted items and people
func (h *Handler) ScheduleJSON(c *gin.Context) {
	var input models.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, ok := h.schedule(c, input)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.ScheduleResponse{
		SchedulingResult: res,
		FairnessScore:    scheduler.FairnessScore(res.WorkloadSummary),
	})
}

// ScheduleCSV handles CSV file uploads for scheduling
func (h *Handler) ScheduleCSV(c *gin.Context) {
	itemsFile, _ := c.FormFile("items_file")
	peopleFile, _ := c.FormFile("people_file")
	if itemsFile == nil || peopleFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items_file and people_file are required"})
		return
	}

	var input models.ScheduleInput
	var err error
	if input.Items, err = parseUpload(itemsFile, parseItemsCSV); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items_file: " + err.Error()})
		return
	}
	if input.People, err = parseUpload(peopleFile, parsePeopleCSV); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "people_file: " + err.Error()})
		return
	}
	if input.Now, err = parseOptionalTime(c.PostForm("now")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "now: " + err.Error()})
		return
	}
	if input.OrgDeadline, err = parseOptionalTime(c.PostForm("org_deadline")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "org_deadline: " + err.Error()})
		return
	}

	res, ok := h.schedule(c, input)
	if !ok {
		return
	}

	out, err := writeScheduleCSV(res.Scheduled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not write CSV"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"csv":              out,
		"conflicts":        res.Conflicts,
		"workload_summary": res.WorkloadSummary,
	})
}

// schedule runs the scheduler and writes the error response itself on failure
func (h *Handler) schedule(c *gin.Context, input models.ScheduleInput) (models.SchedulingResult, bool) {
	now := h.now()
	if input.Now != nil {
		now = *input.Now
	}

	res, err := h.Scheduler.Schedule(input.Items, input.People, now, input.OrgDeadline)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return models.SchedulingResult{}, false
	}

	h.RecordUsage(c, len(input.Items), len(input.People))
	h.Log.Debug().
		Int("items", len(input.Items)).
		Int("people", len(input.People)).
		Int("scheduled", len(res.Scheduled)).
		Int("conflicts", len(res.Conflicts)).
		Msg("schedule preview")
	return res, true
}

func parseUpload[T any](fh *multipart.FileHeader, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}
