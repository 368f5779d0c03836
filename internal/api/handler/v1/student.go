package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gouthamseattle/dance-registration-portal/internal/api/handler/v1/request"
	"github.com/gouthamseattle/dance-registration-portal/internal/api/handler/v1/response"
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/service"
)

type StudentService interface {
	GetStudent(ctx context.Context, id uint) (domain.Student, error)
	Upsert(ctx context.Context, profile domain.Student) (domain.Student, error)
	Classify(ctx context.Context, studentID uint, newType domain.StudentType) (domain.Student, error)
	BulkReset(ctx context.Context) error
}

type StudentHandler struct {
	svc StudentService
}

func NewStudentHandler(svc StudentService) *StudentHandler {
	return &StudentHandler{
		svc: svc,
	}
}

// HandleGetStudent godoc
// @Summary      Get a student
// @Tags         students
// @Produce      json
// @Param        studentID  path      int true "student ID"
// @Success      200  {object}  domain.Student
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /students/{studentID} [get]
// @Security     BearerAuth
func (h *StudentHandler) HandleGetStudent(ctx *gin.Context) {
	studentID, err := strconv.ParseUint(ctx.Param("studentID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid student ID: %w", err)))
		return
	}

	student, err := h.svc.GetStudent(ctx.Request.Context(), uint(studentID))
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("student", "ID", studentID))
			return
		}

		err = fmt.Errorf("v1.HandleGetStudent -> h.svc.GetStudent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// HandleUpsertStudent godoc
// @Summary      Create or update a student profile
// @Description  Finds the student by email and updates the mutable profile fields, or creates a new general student.
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        request  body      request.StudentProfile true "request body"
// @Success      200  {object}  domain.Student
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /students [post]
func (h *StudentHandler) HandleUpsertStudent(ctx *gin.Context) {
	var req request.StudentProfile
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	student, err := h.svc.Upsert(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleUpsertStudent -> h.svc.Upsert -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// HandleClassifyStudent godoc
// @Summary      Classify a student (admin)
// @Description  Sets the student type. Promoting to crew_member with an incomplete crew profile marks the profile incomplete.
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        studentID  path      int true "student ID"
// @Param        request    body      request.ClassifyStudentRequest true "request body"
// @Success      200  {object}  domain.Student
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /students/{studentID}/classify [post]
// @Security     BearerAuth
func (h *StudentHandler) HandleClassifyStudent(ctx *gin.Context) {
	studentID, err := strconv.ParseUint(ctx.Param("studentID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid student ID: %w", err)))
		return
	}

	var req request.ClassifyStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	student, err := h.svc.Classify(ctx.Request.Context(), uint(studentID), domain.StudentType(req.StudentType))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			response.RenderErr(ctx, response.ErrNotFound("student", "ID", studentID))
		case errors.Is(err, service.ErrInvalidStudentType):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleClassifyStudent -> h.svc.Classify -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// HandleBulkReset godoc
// @Summary      Reset all student data (admin)
// @Description  Deletes every waitlist entry, registration and student. Intended for test environments.
// @Tags         students
// @Produce      json
// @Success      204  "no content"
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /students/reset [post]
// @Security     BearerAuth
func (h *StudentHandler) HandleBulkReset(ctx *gin.Context) {
	if err := h.svc.BulkReset(ctx.Request.Context()); err != nil {
		err = fmt.Errorf("v1.HandleBulkReset -> h.svc.BulkReset -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
