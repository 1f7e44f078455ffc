package handlers

import (
	"github.com/labstack/echo/v4"

	"school_ledger_echo/internal/services"
)

// PromotionHandler exposes class promotion and rollback.
type PromotionHandler struct {
	promotions *services.PromotionService
}

// NewPromotionHandler creates the promotion handler.
func NewPromotionHandler(promotions *services.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

// PromoteRequest moves a same-class batch of students.
type PromoteRequest struct {
	StudentIDs    []uint `json:"student_ids" validate:"required,min=1,dive,required"`
	TargetClassID uint   `json:"target_class_id" validate:"required"`
	Section       string `json:"section" validate:"required"`
}

// RollbackRequest undoes each student's most recent promotion.
type RollbackRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,required"`
}

// Promote moves students into a new class and section.
func (h *PromotionHandler) Promote(c echo.Context) error {
	var req PromoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	students, err := h.promotions.PromoteStudents(c.Request().Context(), req.StudentIDs, req.TargetClassID, req.Section)
	if err != nil {
		return err
	}
	return respond(c, "Students promoted successfully", students)
}

// Rollback restores students to their pre-promotion placement.
func (h *PromotionHandler) Rollback(c echo.Context) error {
	var req RollbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	students, err := h.promotions.RollbackPromotion(c.Request().Context(), req.StudentIDs)
	if err != nil {
		return err
	}
	return respond(c, "Promotion rolled back successfully", students)
}
