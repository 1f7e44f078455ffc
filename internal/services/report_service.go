package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/billing"
	"school_ledger_echo/internal/models"
)

// ReportService answers read-only rollup queries over the ledger and
// the student directory. It never participates in the write path.
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a report service.
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// SectionBreakdown is one section's collection figures for a cycle.
type SectionBreakdown struct {
	Section          string  `json:"section"`
	StudentCount     int     `json:"student_count"`
	PaidCount        int     `json:"paid_count"`
	RevenueTarget    float64 `json:"revenue_target"`
	RevenueCollected float64 `json:"revenue_collected"`
}

// ClassBreakdown rolls its sections up to class level.
type ClassBreakdown struct {
	ClassName        string             `json:"class_name"`
	Fee              float64            `json:"fee"`
	StudentCount     int                `json:"student_count"`
	PaidCount        int                `json:"paid_count"`
	RevenueTarget    float64            `json:"revenue_target"`
	RevenueCollected float64            `json:"revenue_collected"`
	Sections         []SectionBreakdown `json:"sections"`
}

// SchoolBreakdown is the full school -> class -> section rollup for
// one billing cycle. "Paid" means a live standard payment with the
// cycle's tag; targets and collections are studentCount x classFee and
// paidCount x classFee.
type SchoolBreakdown struct {
	PayID            string           `json:"pay_id"`
	StudentCount     int              `json:"student_count"`
	PaidCount        int              `json:"paid_count"`
	RevenueTarget    float64          `json:"revenue_target"`
	RevenueCollected float64          `json:"revenue_collected"`
	Classes          []ClassBreakdown `json:"classes"`
}

// CashBucket counts payments and sums their amounts.
type CashBucket struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// CashFlowReport classifies everything recorded in one calendar month
// by how the payment's cycle tag relates to that month: same tag and
// standard type is regular collection, an earlier tag settles an
// arrear, a later tag is an advance, and a same-tag custom payment is
// out-of-cycle. This measures cash moved in the month regardless of
// which cycle it was for.
type CashFlowReport struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Regular    CashBucket `json:"regular"`
	Arrear     CashBucket `json:"arrear"`
	Advance    CashBucket `json:"advance"`
	OutOfCycle CashBucket `json:"out_of_cycle"`
	Total      CashBucket `json:"total"`
}

// StudentPaymentStatus flags whether a student has paid a given cycle.
type StudentPaymentStatus struct {
	StudentID      uint   `json:"student_id"`
	Name           string `json:"name"`
	RegistrationNo string `json:"registration_no"`
	Section        string `json:"section"`
	Paid           bool   `json:"paid"`
	PaymentID      *uint  `json:"payment_id,omitempty"`
}

type breakdownRow struct {
	ClassName string
	Section   string
	Fee       float64
	Students  int
	Paid      int
}

// CycleCollectionReport builds the nested rollup for one cycle tag.
func (s *ReportService) CycleCollectionReport(ctx context.Context, payID string) (*SchoolBreakdown, error) {
	if !billing.IsValid(payID) {
		return nil, apperrors.NewValidation("invalid cycle tag %q: want MMYY with month 01-12", payID)
	}

	var rows []breakdownRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT s.class_name,
		       s.section,
		       c.fee,
		       COUNT(*) AS students,
		       COUNT(p.id) AS paid
		FROM students s
		JOIN classes c ON c.id = s.class_id AND c.deleted_at IS NULL
		LEFT JOIN payments p
		       ON p.student_id = s.id
		      AND p.pay_id = ?
		      AND p.payment_type = ?
		      AND p.deleted_at IS NULL
		WHERE s.deleted_at IS NULL AND s.is_active
		GROUP BY s.class_name, s.section, c.fee
		ORDER BY s.class_name, s.section`,
		payID, models.PaymentTypeStandard,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// Group section rows into classes, then classes into the school
	// total, the same way rows get grouped into nested views elsewhere.
	report := SchoolBreakdown{PayID: payID}
	classMap := make(map[string]*ClassBreakdown)
	var order []string
	for _, row := range rows {
		cb, exists := classMap[row.ClassName]
		if !exists {
			cb = &ClassBreakdown{ClassName: row.ClassName, Fee: row.Fee}
			classMap[row.ClassName] = cb
			order = append(order, row.ClassName)
		}
		target := float64(row.Students) * row.Fee
		collected := float64(row.Paid) * row.Fee
		cb.Sections = append(cb.Sections, SectionBreakdown{
			Section:          row.Section,
			StudentCount:     row.Students,
			PaidCount:        row.Paid,
			RevenueTarget:    target,
			RevenueCollected: collected,
		})
		cb.StudentCount += row.Students
		cb.PaidCount += row.Paid
		cb.RevenueTarget += target
		cb.RevenueCollected += collected
	}

	sort.Strings(order)
	for _, name := range order {
		cb := classMap[name]
		report.StudentCount += cb.StudentCount
		report.PaidCount += cb.PaidCount
		report.RevenueTarget += cb.RevenueTarget
		report.RevenueCollected += cb.RevenueCollected
		report.Classes = append(report.Classes, *cb)
	}
	return &report, nil
}

// MonthlyCashReport classifies all payments created in the given
// calendar month. Classification parses both tags to (year, month)
// pairs; string order is never used.
func (s *ReportService) MonthlyCashReport(ctx context.Context, year int, month time.Month) (*CashFlowReport, error) {
	if year < 2000 || year > 2099 {
		return nil, apperrors.NewValidation("year %d out of range", year)
	}
	if month < time.January || month > time.December {
		return nil, apperrors.NewValidation("month %d out of range", month)
	}

	// Month boundaries follow server-local time, the same location
	// payment timestamps and the daily counter window use.
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	report := CashFlowReport{Year: year, Month: int(month)}
	monthTag := billing.TagAt(start)
	for _, p := range payments {
		cmp, err := billing.Compare(p.PayID, monthTag)
		if err != nil {
			// A malformed stored tag should never happen; skip the row
			// rather than fail the whole report.
			continue
		}
		bucket := &report.OutOfCycle
		switch {
		case cmp < 0:
			bucket = &report.Arrear
		case cmp > 0:
			bucket = &report.Advance
		case p.PaymentType == models.PaymentTypeStandard:
			bucket = &report.Regular
		}
		bucket.Count++
		bucket.Amount += p.Amount
		report.Total.Count++
		report.Total.Amount += p.Amount
	}
	return &report, nil
}

// ClassPaymentStatus lists a class's students with a paid flag for the
// given cycle, for the per-class collection worksheet.
func (s *ReportService) ClassPaymentStatus(ctx context.Context, className, payID string) ([]StudentPaymentStatus, error) {
	if className == "" {
		return nil, apperrors.NewValidation("class name is required")
	}
	if !billing.IsValid(payID) {
		return nil, apperrors.NewValidation("invalid cycle tag %q: want MMYY with month 01-12", payID)
	}

	var rows []StudentPaymentStatus
	err := s.db.WithContext(ctx).Raw(`
		SELECT s.id AS student_id,
		       s.name,
		       s.registration_no,
		       s.section,
		       p.id IS NOT NULL AS paid,
		       p.id AS payment_id
		FROM students s
		LEFT JOIN payments p
		       ON p.student_id = s.id
		      AND p.pay_id = ?
		      AND p.payment_type = ?
		      AND p.deleted_at IS NULL
		WHERE s.class_name = ? AND s.deleted_at IS NULL AND s.is_active
		ORDER BY s.section, s.name`,
		payID, models.PaymentTypeStandard, className,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
