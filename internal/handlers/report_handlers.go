package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/services"
)

// reportCacheTTL keeps dashboard reads cheap without letting stale
// figures linger past a few refreshes.
const reportCacheTTL = 2 * time.Minute

// ReportHandler exposes the read-only rollups and the collections
// counter. Reports are cached per key in redis; the counter endpoints
// talk to the cache directly.
type ReportHandler struct {
	reports     *services.ReportService
	collections *services.CollectionsCache
	cache       *services.RedisCache
}

// NewReportHandler creates the report handler.
func NewReportHandler(reports *services.ReportService, collections *services.CollectionsCache, cache *services.RedisCache) *ReportHandler {
	return &ReportHandler{reports: reports, collections: collections, cache: cache}
}

// CycleReport serves the school/class/section rollup for one cycle.
func (h *ReportHandler) CycleReport(c echo.Context) error {
	payID := c.Param("payId")
	ctx := c.Request().Context()

	report, err := services.GetOrSet(h.cache, ctx, "report:cycle:"+payID, reportCacheTTL, func() (*services.SchoolBreakdown, error) {
		return h.reports.CycleCollectionReport(ctx, payID)
	})
	if err != nil {
		return err
	}
	return respond(c, "Cycle collection report", report)
}

// CashReport serves the monthly cash classification report.
func (h *ReportHandler) CashReport(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return apperrors.NewValidation("invalid year %q", c.Param("year"))
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return apperrors.NewValidation("invalid month %q", c.Param("month"))
	}

	ctx := c.Request().Context()
	key := fmt.Sprintf("report:cash:%04d-%02d", year, month)
	report, err := services.GetOrSet(h.cache, ctx, key, reportCacheTTL, func() (*services.CashFlowReport, error) {
		return h.reports.MonthlyCashReport(ctx, year, time.Month(month))
	})
	if err != nil {
		return err
	}
	return respond(c, "Monthly cash report", report)
}

// ClassStatus lists a class's students with paid flags for a cycle.
func (h *ReportHandler) ClassStatus(c echo.Context) error {
	statuses, err := h.reports.ClassPaymentStatus(c.Request().Context(), c.Param("className"), c.Param("payId"))
	if err != nil {
		return err
	}
	return respond(c, "Class payment status", statuses)
}

// CollectionsToday reads the live counter.
func (h *ReportHandler) CollectionsToday(c echo.Context) error {
	total, err := h.collections.Read(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, "Collections for today", map[string]float64{"total": total})
}

// RecomputeCollections re-derives the counter from the ledger.
func (h *ReportHandler) RecomputeCollections(c echo.Context) error {
	total, err := h.collections.Recompute(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, "Collections recomputed", map[string]float64{"total": total})
}
