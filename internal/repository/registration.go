package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository/dao"
)

var (
	ErrRegistrationNotFound    = dao.ErrRegistrationNotFound
	ErrCourseFull              = dao.ErrCourseFull
	ErrDuplicateRegistration   = dao.ErrDuplicateRegistration
	ErrInvalidStatusTransition = dao.ErrInvalidStatusTransition
	ErrCourseInactive          = dao.ErrCourseInactive
)

// FullCourseID extracts the offending course from a CourseFull rejection.
func FullCourseID(err error) (uint, bool) {
	var full *dao.CourseFullError
	if errors.As(err, &full) {
		return full.CourseID, true
	}

	return 0, false
}

type RegistrationDAO interface {
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByStudent(ctx context.Context, studentID uint) ([]dao.Registration, error)
	CheckCapacity(ctx context.Context, courseID uint) (int, int64, error)
	InsertPending(ctx context.Context, reg dao.Registration) (dao.Registration, bool, error)
	InsertPendingBatch(ctx context.Context, regs []dao.Registration) ([]dao.Registration, error)
	ConfirmPayment(ctx context.Context, id uint, method, note string) (dao.Registration, error)
	MarkPaymentFailed(ctx context.Context, id uint) (dao.Registration, error)
	Cancel(ctx context.Context, id uint, reason, actor string) (dao.Registration, error)
	Uncancel(ctx context.Context, id uint) (dao.Registration, error)
	UpdateAmount(ctx context.Context, id uint, amountCents int64) (dao.Registration, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByStudent(ctx context.Context, studentID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByStudent -> %w", err)
	}

	regs := make([]domain.Registration, len(found))
	for i, reg := range found {
		regs[i] = r.daoToDomain(reg)
	}

	return regs, nil
}

func (r *RegistrationRepository) CheckCapacity(ctx context.Context, courseID uint) (int, int, error) {
	capacity, completed, err := r.dao.CheckCapacity(ctx, courseID)
	if err != nil {
		return 0, 0, fmt.Errorf("r.dao.CheckCapacity -> %w", err)
	}

	return capacity, int(completed), nil
}

func (r *RegistrationRepository) CreatePending(ctx context.Context, reg domain.Registration) (domain.Registration, bool, error) {
	created, deduped, err := r.dao.InsertPending(ctx, r.domainToDao(reg))
	if err != nil {
		return domain.Registration{}, false, fmt.Errorf("r.dao.InsertPending -> %w", err)
	}

	return r.daoToDomain(created), deduped, nil
}

func (r *RegistrationRepository) CreatePendingBatch(ctx context.Context, regs []domain.Registration) ([]domain.Registration, error) {
	daoRegs := make([]dao.Registration, len(regs))
	for i, reg := range regs {
		daoRegs[i] = r.domainToDao(reg)
	}

	created, err := r.dao.InsertPendingBatch(ctx, daoRegs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.InsertPendingBatch -> %w", err)
	}

	out := make([]domain.Registration, len(created))
	for i, reg := range created {
		out[i] = r.daoToDomain(reg)
	}

	return out, nil
}

func (r *RegistrationRepository) ConfirmPayment(ctx context.Context, id uint, method, note string) (domain.Registration, error) {
	confirmed, err := r.dao.ConfirmPayment(ctx, id, method, note)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.ConfirmPayment -> %w", err)
	}

	return r.daoToDomain(confirmed), nil
}

func (r *RegistrationRepository) MarkPaymentFailed(ctx context.Context, id uint) (domain.Registration, error) {
	failed, err := r.dao.MarkPaymentFailed(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.MarkPaymentFailed -> %w", err)
	}

	return r.daoToDomain(failed), nil
}

func (r *RegistrationRepository) Cancel(ctx context.Context, id uint, reason, actor string) (domain.Registration, error) {
	canceled, err := r.dao.Cancel(ctx, id, reason, actor)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return r.daoToDomain(canceled), nil
}

func (r *RegistrationRepository) Uncancel(ctx context.Context, id uint) (domain.Registration, error) {
	uncanceled, err := r.dao.Uncancel(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Uncancel -> %w", err)
	}

	return r.daoToDomain(uncanceled), nil
}

func (r *RegistrationRepository) UpdateAmount(ctx context.Context, id uint, amountCents int64) (domain.Registration, error) {
	updated, err := r.dao.UpdateAmount(ctx, id, amountCents)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.UpdateAmount -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *RegistrationRepository) daoToDomain(reg dao.Registration) domain.Registration {
	return domain.Registration{
		ID:                  reg.ID,
		StudentID:           reg.StudentID,
		CourseID:            reg.CourseID,
		PaymentAmountCents:  reg.PaymentAmountCents,
		PaymentStatus:       domain.PaymentStatus(reg.PaymentStatus),
		PaymentMethod:       reg.PaymentMethod,
		PaymentNote:         reg.PaymentNote,
		RegistrationType:    reg.RegistrationType,
		CreatedFromWaitlist: reg.CreatedFromWaitlist,
		CanceledAt:          reg.CanceledAt,
		CanceledBy:          reg.CanceledBy,
		CancellationReason:  reg.CancellationReason,
		CreatedAt:           reg.CreatedAt,
		UpdatedAt:           reg.UpdatedAt,
	}
}

func (r *RegistrationRepository) domainToDao(reg domain.Registration) dao.Registration {
	return dao.Registration{
		ID:                  reg.ID,
		StudentID:           reg.StudentID,
		CourseID:            reg.CourseID,
		PaymentAmountCents:  reg.PaymentAmountCents,
		PaymentStatus:       string(reg.PaymentStatus),
		PaymentMethod:       reg.PaymentMethod,
		PaymentNote:         reg.PaymentNote,
		RegistrationType:    reg.RegistrationType,
		CreatedFromWaitlist: reg.CreatedFromWaitlist,
		CanceledAt:          reg.CanceledAt,
		CanceledBy:          reg.CanceledBy,
		CancellationReason:  reg.CancellationReason,
		CreatedAt:           reg.CreatedAt,
		UpdatedAt:           reg.UpdatedAt,
	}
}
