package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
	"github.com/arnavshah/autoscheduler-api-go/pkg/planner"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
	"github.com/arnavshah/autoscheduler-api-go/pkg/store"
)

// applyTrigger marks runs started through the API
const applyTrigger = "api"

// PutItems upserts a project's work items
func (h *Handler) PutItems(c *gin.Context) {
	var req struct {
		Items []models.WorkItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := scheduler.Validate(req.Items, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := c.Param("project")
	if err := h.Planner.Store.UpsertItems(c.Request.Context(), project, req.Items); err != nil {
		h.Log.Error().Err(err).Str("project", project).Msg("upsert items failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project, "upserted": len(req.Items)})
}

// PutPeople replaces a project's roster
func (h *Handler) PutPeople(c *gin.Context) {
	var req struct {
		People []models.Person `json:"people"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := scheduler.Validate(nil, req.People); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := c.Param("project")
	if err := h.Planner.Store.ReplacePeople(c.Request.Context(), project, req.People); err != nil {
		h.Log.Error().Err(err).Str("project", project).Msg("replace roster failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save people"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project, "people": len(req.People)})
}

// PreviewProject schedules stored project data without writing it back
func (h *Handler) PreviewProject(c *gin.Context) {
	h.runProject(c, false)
}

// ApplyProject schedules stored project data and persists the placements
func (h *Handler) ApplyProject(c *gin.Context) {
	h.runProject(c, true)
}

func (h *Handler) runProject(c *gin.Context, apply bool) {
	project := c.Param("project")
	orgDeadline, err := parseOptionalTime(c.Query("org_deadline"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "org_deadline: " + err.Error()})
		return
	}

	var out planner.Outcome
	if apply {
		out, err = h.Planner.Apply(c.Request.Context(), project, orgDeadline, applyTrigger)
	} else {
		out, err = h.Planner.Preview(c.Request.Context(), project, orgDeadline)
	}
	switch {
	case errors.Is(err, store.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project " + project + " not found"})
		return
	case errors.Is(err, scheduler.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.Log.Error().Err(err).Str("project", project).Bool("apply", apply).Msg("project schedule failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not schedule project"})
		return
	}

	h.RecordUsage(c, len(out.Result.Scheduled)+len(out.Result.Conflicts), len(out.Result.WorkloadSummary))
	c.JSON(http.StatusOK, out.Response())
}

// ListRuns returns the project's recent applied runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	runs, err := h.Planner.Store.Runs(c.Request.Context(), c.Param("project"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
