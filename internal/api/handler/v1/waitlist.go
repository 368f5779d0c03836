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

type WaitlistService interface {
	Join(ctx context.Context, profile domain.Student, courseID uint) (domain.WaitlistEntry, error)
	Notify(ctx context.Context, entryID uint, expiresHours int) (service.NotifyResult, error)
	NotifyNext(ctx context.Context, courseID uint) (service.NotifyResult, error)
	Remove(ctx context.Context, entryID uint) error
	Reorder(ctx context.Context, entryID uint, newPosition int) (domain.WaitlistEntry, error)
	ListForCourse(ctx context.Context, courseID uint) ([]domain.WaitlistEntry, error)
}

type WaitlistHandler struct {
	svc WaitlistService
}

func NewWaitlistHandler(svc WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{
		svc: svc,
	}
}

// HandleJoinWaitlist godoc
// @Summary      Join a course waitlist
// @Description  Appends the student at the end of the line. Joining again while active returns the existing entry; a lapsed notified entry is reactivated at its old position.
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Param        request  body      request.JoinWaitlistRequest true "request body"
// @Success      201  {object}  domain.WaitlistEntry
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /waitlist [post]
func (h *WaitlistHandler) HandleJoinWaitlist(ctx *gin.Context) {
	var req request.JoinWaitlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.Join(ctx.Request.Context(), req.Student.ToDomain(), req.CourseID)
	if err != nil {
		renderWaitlistErr(ctx, "HandleJoinWaitlist", err)
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandleListWaitlist godoc
// @Summary      List a course's waitlist (admin)
// @Tags         waitlist
// @Produce      json
// @Param        courseID  path      int true "course ID"
// @Success      200  {array}   domain.WaitlistEntry
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /courses/{courseID}/waitlist [get]
// @Security     BearerAuth
func (h *WaitlistHandler) HandleListWaitlist(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("courseID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid course ID: %w", err)))
		return
	}

	entries, err := h.svc.ListForCourse(ctx.Request.Context(), uint(courseID))
	if err != nil {
		renderWaitlistErr(ctx, "HandleListWaitlist", err)
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleNotifyEntry godoc
// @Summary      Notify a waitlist entry (admin)
// @Description  Issues a single-use registration token, stamps the notification window and emails the tokenized link. The email result is a soft flag.
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Param        entryID  path      int true "waitlist entry ID"
// @Param        request  body      request.NotifyWaitlistRequest true "request body"
// @Success      200  {object}  service.NotifyResult
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /waitlist/{entryID}/notify [post]
// @Security     BearerAuth
func (h *WaitlistHandler) HandleNotifyEntry(ctx *gin.Context) {
	entryID, ok := entryIDParam(ctx)
	if !ok {
		return
	}

	var req request.NotifyWaitlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.Notify(ctx.Request.Context(), entryID, req.ExpiresHours)
	if err != nil {
		renderWaitlistErr(ctx, "HandleNotifyEntry", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleNotifyNext godoc
// @Summary      Notify the next waitlisted student (admin)
// @Description  Notifies the lowest-position active entry for the course. An empty waitlist is a no-op success with notified=false.
// @Tags         waitlist
// @Produce      json
// @Param        courseID  path      int true "course ID"
// @Success      200  {object}  service.NotifyResult
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /courses/{courseID}/waitlist/notify-next [post]
// @Security     BearerAuth
func (h *WaitlistHandler) HandleNotifyNext(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("courseID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid course ID: %w", err)))
		return
	}

	result, err := h.svc.NotifyNext(ctx.Request.Context(), uint(courseID))
	if err != nil {
		renderWaitlistErr(ctx, "HandleNotifyNext", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleReorderEntry godoc
// @Summary      Move a waitlist entry to a new position (admin)
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Param        entryID  path      int true "waitlist entry ID"
// @Param        request  body      request.ReorderWaitlistRequest true "request body"
// @Success      200  {object}  domain.WaitlistEntry
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /waitlist/{entryID}/reorder [post]
// @Security     BearerAuth
func (h *WaitlistHandler) HandleReorderEntry(ctx *gin.Context) {
	entryID, ok := entryIDParam(ctx)
	if !ok {
		return
	}

	var req request.ReorderWaitlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.Reorder(ctx.Request.Context(), entryID, req.NewPosition)
	if err != nil {
		renderWaitlistErr(ctx, "HandleReorderEntry", err)
		return
	}

	ctx.JSON(http.StatusOK, entry)
}

// HandleRemoveEntry godoc
// @Summary      Remove a waitlist entry (admin)
// @Description  Deletes the entry and renumbers the remaining positions so they stay contiguous.
// @Tags         waitlist
// @Produce      json
// @Param        entryID  path      int true "waitlist entry ID"
// @Success      204  "no content"
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /waitlist/{entryID} [delete]
// @Security     BearerAuth
func (h *WaitlistHandler) HandleRemoveEntry(ctx *gin.Context) {
	entryID, ok := entryIDParam(ctx)
	if !ok {
		return
	}

	if err := h.svc.Remove(ctx.Request.Context(), entryID); err != nil {
		renderWaitlistErr(ctx, "HandleRemoveEntry", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func entryIDParam(ctx *gin.Context) (uint, bool) {
	entryID, err := strconv.ParseUint(ctx.Param("entryID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid waitlist entry ID: %w", err)))
		return 0, false
	}

	return uint(entryID), true
}

func renderWaitlistErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrWaitlistEntryNotFound):
		response.RenderErr(ctx, response.NewErr(http.StatusNotFound, service.ErrWaitlistEntryNotFound))
	case errors.Is(err, service.ErrCourseNotFound):
		response.RenderErr(ctx, response.NewErr(http.StatusNotFound, service.ErrCourseNotFound))
	case errors.Is(err, service.ErrPositionOutOfRange):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrCourseInactive):
		response.RenderErr(ctx, response.ErrUnprocessable(err))
	default:
		err = fmt.Errorf("v1.%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
