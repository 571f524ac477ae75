package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arnavshah/autoscheduler-api-go/pkg/config"
	"github.com/arnavshah/autoscheduler-api-go/pkg/logging"
	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
)

type planOptions struct {
	file        string
	now         string
	orgDeadline string
	output      string
	logLevel    string
}

func newPlanCmd() *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview a schedule from a YAML or JSON plan file",
		Long: `Reads items and people from a plan file and prints the suggested schedule.
Nothing is written back; run it as often as you like.

Plan files hold the same fields as the /api/schedule request body:

  items:
    - id: docs
      kind: delegable
      priority: high
      estimated_hours: 12
      due_date: 2026-11-02T17:00:00Z
  people:
    - id: alex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "plan file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&opts.now, "now", "", "reference time, RFC3339 (defaults to the plan's now, then the clock)")
	cmd.Flags().StringVar(&opts.orgDeadline, "org-deadline", "", "deadline for items without a due date, RFC3339")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics on stderr")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runPlan(stdout, stderr io.Writer, opts *planOptions) error {
	log := logging.New(opts.logLevel, "console", stderr)

	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	input, err := readPlan(opts.file)
	if err != nil {
		return err
	}
	if opts.now != "" {
		t, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		input.Now = &t
	}
	if opts.orgDeadline != "" {
		t, err := time.Parse(time.RFC3339, opts.orgDeadline)
		if err != nil {
			return fmt.Errorf("--org-deadline: %w", err)
		}
		input.OrgDeadline = &t
	}
	now := time.Now()
	if input.Now != nil {
		now = *input.Now
	}

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return err
	}
	sched := scheduler.NewScheduler(cfg.Scheduler)

	res, err := sched.Schedule(input.Items, input.People, now, input.OrgDeadline)
	if err != nil {
		return err
	}
	log.Debug().
		Str("file", opts.file).
		Int("items", len(input.Items)).
		Int("people", len(input.People)).
		Int("scheduled", len(res.Scheduled)).
		Int("conflicts", len(res.Conflicts)).
		Msg("plan computed")

	resp := models.ScheduleResponse{SchedulingResult: res, FairnessScore: scheduler.FairnessScore(res.WorkloadSummary)}
	if opts.output == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return writeText(stdout, resp)
}

func readPlan(path string) (models.ScheduleInput, error) {
	var input models.ScheduleInput
	data, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &input)
	} else {
		err = yaml.Unmarshal(data, &input)
	}
	if err != nil {
		return input, fmt.Errorf("parse %s: %w", path, err)
	}
	return input, nil
}

func writeText(w io.Writer, resp models.ScheduleResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "SCHEDULED")
	fmt.Fprintln(tw, "ITEM\tASSIGNEE\tSTART\tDUE\tREASON")
	for _, s := range resp.Scheduled {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ItemID, s.AssignedTo,
			s.SuggestedStart.Format("Mon 2006-01-02"), s.SuggestedDue.Format("Mon 2006-01-02"), s.Reason)
	}

	if len(resp.Conflicts) > 0 {
		fmt.Fprintln(tw, "\nCONFLICTS")
		fmt.Fprintln(tw, "ITEM\tISSUE")
		for _, c := range resp.Conflicts {
			fmt.Fprintf(tw, "%s\t%s\n", c.ItemID, c.Issue)
		}
	}

	fmt.Fprintln(tw, "\nWORKLOAD")
	fmt.Fprintln(tw, "PERSON\tHOURS\tITEMS")
	for _, wl := range resp.WorkloadSummary {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\n", wl.PersonID, wl.TotalHours, wl.ItemCount)
	}
	fmt.Fprintf(tw, "\nfairness: %.1f%%\n", resp.FairnessScore)
	return tw.Flush()
}
