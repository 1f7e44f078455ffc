package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"school_ledger_echo/internal/services"
)

// CollectionSummaryTaskDef mails the month's cash-flow figures to the
// configured recipients. Arguments: "recipients" (list of addresses).
type CollectionSummaryTaskDef struct {
	Reports *services.ReportService
	Email   *services.EmailService
}

// TaskID returns the unique identifier for this task
func (t *CollectionSummaryTaskDef) TaskID() string {
	return "collection_summary_email"
}

// HandleExecution builds the current month's cash report and sends it.
func (t *CollectionSummaryTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	raw, ok := args["recipients"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("recipients argument is required")
	}
	recipients := make([]string, 0, len(raw))
	for _, r := range raw {
		addr, ok := r.(string)
		if !ok || addr == "" {
			return nil, fmt.Errorf("recipients must be non-empty strings")
		}
		recipients = append(recipients, addr)
	}

	now := time.Now()
	report, err := t.Reports.MonthlyCashReport(ctx, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Fee collection summary %s", now.Format("January 2006"))
	body := fmt.Sprintf(
		"Collections for %s\n\n"+
			"Regular: %d payments, %.2f\n"+
			"Arrears settled: %d payments, %.2f\n"+
			"Advances: %d payments, %.2f\n"+
			"Out of cycle: %d payments, %.2f\n\n"+
			"Total cash moved: %.2f across %d payments\n",
		now.Format("January 2006"),
		report.Regular.Count, report.Regular.Amount,
		report.Arrear.Count, report.Arrear.Amount,
		report.Advance.Count, report.Advance.Amount,
		report.OutOfCycle.Count, report.OutOfCycle.Amount,
		report.Total.Amount, report.Total.Count,
	)

	if err := t.Email.SendEmail(recipients, subject, body); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":     "success",
		"recipients": len(recipients),
		"total":      report.Total.Amount,
	}, nil
}
