package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
)

// ValidateInput checks a scheduling request without scheduling it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if err := scheduler.Validate(input.Items, input.People); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	stats := scheduler.Summarize(input.Items)
	var warnings []string
	if len(input.People) == 0 && stats.Eligible > 0 {
		warnings = append(warnings, "no people supplied: every eligible item will be a conflict")
	}
	if stats.Eligible == 0 {
		warnings = append(warnings, "no eligible items: nothing will be scheduled")
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"warnings": warnings,
		"stats": gin.H{
			"items":        stats,
			"people_count": len(input.People),
		},
	})
}
