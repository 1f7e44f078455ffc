package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"school_ledger_echo/internal/apperrors"
	"school_ledger_echo/internal/middleware"
	"school_ledger_echo/internal/models"
	"school_ledger_echo/internal/services"
)

// PaymentHandler exposes the ledger write and read operations.
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler creates the payment handler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePaymentRequest is the body for a single regular payment.
type CreatePaymentRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

// CustomPaymentRequest is the body for an off-cycle payment.
type CustomPaymentRequest struct {
	StudentID   uint   `json:"student_id" validate:"required"`
	PayID       string `json:"pay_id" validate:"required,len=4"`
	PaymentType string `json:"payment_type"`
}

// BulkPaymentRequest is the body for a bulk commit.
type BulkPaymentRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,max=200,dive,required"`
}

// BulkDeleteRequest reverses a cycle's payments for a set of students.
type BulkDeleteRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,required"`
	PayID      string `json:"pay_id" validate:"required,len=4"`
}

// CreatePayment records the current cycle's fee for one student.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.payments.CreateRegularPayment(c.Request().Context(), req.StudentID, middleware.ActorUID(c))
	if err != nil {
		return err
	}
	return respond(c, "Payment created successfully", payment)
}

// CreateCustomPayment records an arrear or advance payment.
func (h *PaymentHandler) CreateCustomPayment(c echo.Context) error {
	var req CustomPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.payments.CreateCustomPayment(
		c.Request().Context(),
		req.StudentID,
		req.PayID,
		models.PaymentType(req.PaymentType),
		middleware.ActorUID(c),
	)
	if err != nil {
		return err
	}
	return respond(c, "Payment created successfully", payment)
}

// CreateBulkPayments commits regular payments for a list of students.
func (h *PaymentHandler) CreateBulkPayments(c echo.Context) error {
	var req BulkPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.payments.CreateBulkPayments(c.Request().Context(), req.StudentIDs, middleware.ActorUID(c))
	if err != nil {
		return err
	}
	return respond(c, "Payments created successfully", result)
}

// DeletePayment removes one payment and its history mirror.
func (h *PaymentHandler) DeletePayment(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	payment, err := h.payments.DeletePayment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, "Payment deleted successfully", payment)
}

// DeleteBulkPayments reverses a cycle's payments for many students.
func (h *PaymentHandler) DeleteBulkPayments(c echo.Context) error {
	var req BulkDeleteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.payments.DeleteBulkPayments(c.Request().Context(), req.StudentIDs, req.PayID)
	if err != nil {
		return err
	}
	return respond(c, "Payments deleted successfully", result)
}

// GetPayment fetches one payment by ID.
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	payment, err := h.payments.GetPaymentByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, "Payment fetched successfully", payment)
}

// GetStudentPayments lists a student's ledger rows.
func (h *PaymentHandler) GetStudentPayments(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	payments, err := h.payments.GetPaymentsByStudent(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, "Payments fetched successfully", payments)
}

// GetStudentHistory lists a student's mirrored history entries.
func (h *PaymentHandler) GetStudentHistory(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	history, err := h.payments.GetStudentHistory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, "Student payment history", history)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidation("invalid id %q", raw)
	}
	return uint(id), nil
}
