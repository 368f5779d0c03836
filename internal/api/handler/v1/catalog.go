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

type CatalogService interface {
	GetCourseWithAvailability(ctx context.Context, courseID uint) (domain.CourseAvailability, error)
	ListEligibleCourses(ctx context.Context, studentType domain.StudentType) ([]domain.CourseAvailability, error)
	CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error)
}

type CatalogHandler struct {
	svc CatalogService
}

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{
		svc: svc,
	}
}

// HandleListCourses godoc
// @Summary      List active courses visible to a student type
// @Description  Returns active courses with live availability, filtered by the student_type query parameter (default general).
// @Tags         courses
// @Produce      json
// @Param        student_type  query     string false "student type (general, crew_member, test)"
// @Success      200  {array}   domain.CourseAvailability
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /courses [get]
func (h *CatalogHandler) HandleListCourses(ctx *gin.Context) {
	studentType := domain.StudentType(ctx.DefaultQuery("student_type", string(domain.StudentTypeGeneral)))
	if !domain.ValidStudentType(studentType) {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid student type %q", studentType)))
		return
	}

	courses, err := h.svc.ListEligibleCourses(ctx.Request.Context(), studentType)
	if err != nil {
		err = fmt.Errorf("v1.HandleListCourses -> h.svc.ListEligibleCourses -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, courses)
}

// HandleGetCourse godoc
// @Summary      Get one course with availability
// @Tags         courses
// @Produce      json
// @Param        courseID  path      int true "course ID"
// @Success      200  {object}  domain.CourseAvailability
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /courses/{courseID} [get]
func (h *CatalogHandler) HandleGetCourse(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("courseID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid course ID: %w", err)))
		return
	}

	course, err := h.svc.GetCourseWithAvailability(ctx.Request.Context(), uint(courseID))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("course", "ID", courseID))
			return
		}

		err = fmt.Errorf("v1.HandleGetCourse -> h.svc.GetCourseWithAvailability -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// HandleCreateCourse godoc
// @Summary      Create a course (admin)
// @Description  Creates a course with its slots and pricing tiers.
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateCourseRequest true "request body"
// @Success      201  {object}  domain.Course
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /courses [post]
// @Security     BearerAuth
func (h *CatalogHandler) HandleCreateCourse(ctx *gin.Context) {
	var req request.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateCourse(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateCourse -> h.svc.CreateCourse -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}
