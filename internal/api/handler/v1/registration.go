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
	"github.com/gouthamseattle/dance-registration-portal/internal/api/middleware"
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/pkg/jwthelper"
	"github.com/gouthamseattle/dance-registration-portal/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, profile domain.Student, courseID uint, amountCents int64) (service.RegisterResult, error)
	RegisterFromWaitlist(ctx context.Context, token string, amountCents int64) (service.RegisterResult, error)
	RegisterBundle(ctx context.Context, profile domain.Student, courseIDs []uint, totalAmountCents int64) (service.BundleResult, error)
	RegisterCrewHouseCombo(ctx context.Context, profile domain.Student, houseCourseIDs []uint, totalAmountCents int64) (service.ComboResult, error)
	ConfirmPayment(ctx context.Context, registrationID uint, method, note string) (service.ConfirmResult, error)
	MarkPaymentFailed(ctx context.Context, registrationID uint) (domain.Registration, error)
	Cancel(ctx context.Context, registrationID uint, reason, actor string) (service.CancelResult, error)
	Uncancel(ctx context.Context, registrationID uint) (service.UncancelResult, error)
	Edit(ctx context.Context, registrationID uint, fields service.EditFields) (domain.Registration, error)
	GetRegistration(ctx context.Context, id uint) (domain.Registration, error)
	ListForStudent(ctx context.Context, studentID uint) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc RegistrationService
}

func NewRegistrationHandler(svc RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		svc: svc,
	}
}

// HandleCreateRegistration godoc
// @Summary      Register for a course
// @Description  Creates a pending registration. Resubmitting while the first attempt is pending returns the existing row. A waitlist_token registers from a waitlist notification instead.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateRegistrationRequest true "request body"
// @Success      201  {object}  service.RegisterResult
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.AccessDenied
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations [post]
func (h *RegistrationHandler) HandleCreateRegistration(ctx *gin.Context) {
	var req request.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var result service.RegisterResult
	var err error
	if req.WaitlistToken != "" {
		result, err = h.svc.RegisterFromWaitlist(ctx.Request.Context(), req.WaitlistToken, req.AmountCents)
	} else {
		result, err = h.svc.Register(ctx.Request.Context(), req.Student.ToDomain(), req.CourseID, req.AmountCents)
	}
	if err != nil {
		renderRegistrationErr(ctx, "HandleCreateRegistration", err)
		return
	}

	status := http.StatusCreated
	if result.Deduped {
		status = http.StatusOK
	}
	ctx.JSON(status, result)
}

// HandleCreateBundle godoc
// @Summary      Register a drop-in class bundle
// @Description  Admits up to the configured number of drop-in classes as one all-or-nothing package. Classes must share the same time slot and none may fall in the gated final week.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateBundleRequest true "request body"
// @Success      201  {object}  service.BundleResult
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.AccessDenied
// @Failure      422  {object}  response.BundleRejection
// @Failure      500  {object}  response.Err
// @Router       /registrations/bundle [post]
func (h *RegistrationHandler) HandleCreateBundle(ctx *gin.Context) {
	var req request.CreateBundleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.RegisterBundle(ctx.Request.Context(), req.Student.ToDomain(), req.CourseIDs, req.TotalAmountCents)
	if err != nil {
		renderRegistrationErr(ctx, "HandleCreateBundle", err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// HandleCreateCombo godoc
// @Summary      Register a crew house combo
// @Description  Bundles the selected house classes with unlimited crew practice access. Crew members only.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateComboRequest true "request body"
// @Success      201  {object}  service.ComboResult
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.AccessDenied
// @Failure      422  {object}  response.BundleRejection
// @Failure      500  {object}  response.Err
// @Router       /registrations/combo [post]
func (h *RegistrationHandler) HandleCreateCombo(ctx *gin.Context) {
	var req request.CreateComboRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.RegisterCrewHouseCombo(ctx.Request.Context(), req.Student.ToDomain(), req.HouseCourseIDs, req.TotalAmountCents)
	if err != nil {
		renderRegistrationErr(ctx, "HandleCreateCombo", err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// HandleGetRegistration godoc
// @Summary      Get a registration
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int true "registration ID"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID} [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetRegistration(ctx *gin.Context) {
	registrationID, ok := registrationIDParam(ctx)
	if !ok {
		return
	}

	reg, err := h.svc.GetRegistration(ctx.Request.Context(), registrationID)
	if err != nil {
		renderRegistrationErr(ctx, "HandleGetRegistration", err)
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleListStudentRegistrations godoc
// @Summary      List a student's registrations (admin)
// @Description  Returns the student's full registration history across all payment statuses.
// @Tags         registrations
// @Produce      json
// @Param        studentID  path      int true "student ID"
// @Success      200  {array}   domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /students/{studentID}/registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleListStudentRegistrations(ctx *gin.Context) {
	studentID, err := strconv.ParseUint(ctx.Param("studentID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid student ID: %w", err)))
		return
	}

	regs, err := h.svc.ListForStudent(ctx.Request.Context(), uint(studentID))
	if err != nil {
		renderRegistrationErr(ctx, "HandleListStudentRegistrations", err)
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleConfirmPayment godoc
// @Summary      Confirm payment (admin)
// @Description  Moves the registration to completed; from this point it counts against capacity. The confirmation email result is reported as a soft flag and never fails the confirmation.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        registrationID  path      int true "registration ID"
// @Param        request         body      request.ConfirmPaymentRequest true "request body"
// @Success      200  {object}  service.ConfirmResult
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID}/confirm [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleConfirmPayment(ctx *gin.Context) {
	registrationID, ok := registrationIDParam(ctx)
	if !ok {
		return
	}

	var req request.ConfirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.ConfirmPayment(ctx.Request.Context(), registrationID, req.PaymentMethod, req.Note)
	if err != nil {
		renderRegistrationErr(ctx, "HandleConfirmPayment", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleCancelRegistration godoc
// @Summary      Cancel a registration (admin)
// @Description  Cancels a pending or completed registration, freeing its spot. The waitlist is not auto-promoted.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        registrationID  path      int true "registration ID"
// @Param        request         body      request.CancelRegistrationRequest true "request body"
// @Success      200  {object}  service.CancelResult
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID}/cancel [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleCancelRegistration(ctx *gin.Context) {
	registrationID, ok := registrationIDParam(ctx)
	if !ok {
		return
	}

	var req request.CancelRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	claims := adminEmailFromContext(ctx)

	result, err := h.svc.Cancel(ctx.Request.Context(), registrationID, req.Reason, claims)
	if err != nil {
		renderRegistrationErr(ctx, "HandleCancelRegistration", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleUncancelRegistration godoc
// @Summary      Restore a canceled registration (admin)
// @Description  Moves the registration back to pending. Payment must be reconfirmed before it counts against capacity again; the response reports whether the course currently has room.
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int true "registration ID"
// @Success      200  {object}  service.UncancelResult
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID}/uncancel [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleUncancelRegistration(ctx *gin.Context) {
	registrationID, ok := registrationIDParam(ctx)
	if !ok {
		return
	}

	result, err := h.svc.Uncancel(ctx.Request.Context(), registrationID)
	if err != nil {
		renderRegistrationErr(ctx, "HandleUncancelRegistration", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleMarkPaymentFailed godoc
// @Summary      Mark a pending payment as failed (admin)
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int true "registration ID"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID}/fail [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleMarkPaymentFailed(ctx *gin.Context) {
	registrationID, ok := registrationIDParam(ctx)
	if !ok {
		return
	}

	reg, err := h.svc.MarkPaymentFailed(ctx.Request.Context(), registrationID)
	if err != nil {
		renderRegistrationErr(ctx, "HandleMarkPaymentFailed", err)
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleEditRegistration godoc
// @Summary      Edit a registration (admin)
// @Description  Updates the payment amount and the student's contact fields. Payment status is never edited directly.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        registrationID  path      int true "registration ID"
// @Param        request         body      request.EditRegistrationRequest true "request body"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/{registrationID} [patch]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleEditRegistration(ctx *gin.Context) {
	registrationID, ok := registrationIDParam(ctx)
	if !ok {
		return
	}

	var req request.EditRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Edit(ctx.Request.Context(), registrationID, service.EditFields{
		AmountCents:      req.AmountCents,
		Phone:            req.Phone,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		renderRegistrationErr(ctx, "HandleEditRegistration", err)
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

func registrationIDParam(ctx *gin.Context) (uint, bool) {
	registrationID, err := strconv.ParseUint(ctx.Param("registrationID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid registration ID: %w", err)))
		return 0, false
	}

	return uint(registrationID), true
}

// renderRegistrationErr maps the ledger's error taxonomy onto HTTP codes.
// Expected business outcomes stay 4xx with actionable messages; everything
// else is a 500.
func renderRegistrationErr(ctx *gin.Context, op string, err error) {
	var bundleErr *service.BundleRejectionError
	var accessErr *service.AccessDeniedError

	switch {
	case errors.As(err, &bundleErr):
		ctx.JSON(http.StatusUnprocessableEntity, response.BundleRejection{
			ErrorMsg: bundleErr.Error(),
			Reason:   bundleErr.Reason,
			CourseID: bundleErr.CourseID,
		})
	case errors.As(err, &accessErr):
		ctx.JSON(http.StatusForbidden, response.AccessDenied{
			ErrorMsg:     accessErr.Error(),
			RequiredType: string(accessErr.RequiredType),
		})
	case errors.Is(err, service.ErrCourseFull):
		response.RenderErr(ctx, response.ErrConflict(
			errors.New("course is full; join the waitlist to be notified when a spot opens")))
	case errors.Is(err, service.ErrDuplicateRegistration):
		response.RenderErr(ctx, response.ErrConflict(
			errors.New("you already have a completed registration for this course")))
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrCourseInactive):
		response.RenderErr(ctx, response.ErrUnprocessable(err))
	case errors.Is(err, service.ErrNotificationExpired):
		response.RenderErr(ctx, response.ErrUnprocessable(err))
	case errors.Is(err, service.ErrEmptyBundle), errors.Is(err, service.ErrBundleTooLarge):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrCourseNotFound):
		response.RenderErr(ctx, response.NewErr(http.StatusNotFound, service.ErrCourseNotFound))
	case errors.Is(err, service.ErrStudentNotFound):
		response.RenderErr(ctx, response.ErrNotFound("student", "ID", ctx.Param("studentID")))
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.RenderErr(ctx, response.ErrNotFound("registration", "ID", ctx.Param("registrationID")))
	case errors.Is(err, service.ErrWaitlistEntryNotFound):
		response.RenderErr(ctx, response.NewErr(http.StatusNotFound, service.ErrWaitlistEntryNotFound))
	default:
		err = fmt.Errorf("v1.%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

func adminEmailFromContext(ctx *gin.Context) string {
	value, ok := ctx.Get(middleware.ClaimsContextKey)
	if !ok {
		return ""
	}

	claims, ok := value.(jwthelper.Claims)
	if !ok {
		return ""
	}

	return claims.Email
}
