package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository/dao"
)

var (
	ErrWaitlistEntryNotFound = dao.ErrWaitlistEntryNotFound
	ErrPositionOutOfRange    = dao.ErrPositionOutOfRange
)

type WaitlistDAO interface {
	FindByID(ctx context.Context, id uint) (dao.WaitlistEntry, error)
	FindByToken(ctx context.Context, token string) (dao.WaitlistEntry, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dao.WaitlistEntry, error)
	JoinOrReactivate(ctx context.Context, studentID, courseID uint) (dao.WaitlistEntry, error)
	MarkNotified(ctx context.Context, id uint, token string, sentAt, expiresAt time.Time) (dao.WaitlistEntry, error)
	FindNextActive(ctx context.Context, courseID uint) (dao.WaitlistEntry, error)
	Remove(ctx context.Context, id uint) error
	Reorder(ctx context.Context, id uint, newPosition int) (dao.WaitlistEntry, error)
}

type WaitlistRepository struct {
	dao WaitlistDAO
}

func NewWaitlistRepository(dao WaitlistDAO) *WaitlistRepository {
	return &WaitlistRepository{
		dao: dao,
	}
}

func (r *WaitlistRepository) FindByID(ctx context.Context, id uint) (domain.WaitlistEntry, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *WaitlistRepository) FindByToken(ctx context.Context, token string) (domain.WaitlistEntry, error) {
	found, err := r.dao.FindByToken(ctx, token)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("r.dao.FindByToken -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *WaitlistRepository) ListByCourse(ctx context.Context, courseID uint) ([]domain.WaitlistEntry, error) {
	found, err := r.dao.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByCourse -> %w", err)
	}

	entries := make([]domain.WaitlistEntry, len(found))
	for i, e := range found {
		entries[i] = r.daoToDomain(e)
	}

	return entries, nil
}

func (r *WaitlistRepository) JoinOrReactivate(ctx context.Context, studentID, courseID uint) (domain.WaitlistEntry, error) {
	joined, err := r.dao.JoinOrReactivate(ctx, studentID, courseID)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("r.dao.JoinOrReactivate -> %w", err)
	}

	return r.daoToDomain(joined), nil
}

func (r *WaitlistRepository) MarkNotified(ctx context.Context, id uint, token string, sentAt, expiresAt time.Time) (domain.WaitlistEntry, error) {
	notified, err := r.dao.MarkNotified(ctx, id, token, sentAt, expiresAt)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("r.dao.MarkNotified -> %w", err)
	}

	return r.daoToDomain(notified), nil
}

func (r *WaitlistRepository) FindNextActive(ctx context.Context, courseID uint) (domain.WaitlistEntry, error) {
	next, err := r.dao.FindNextActive(ctx, courseID)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("r.dao.FindNextActive -> %w", err)
	}

	return r.daoToDomain(next), nil
}

func (r *WaitlistRepository) Remove(ctx context.Context, id uint) error {
	if err := r.dao.Remove(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Remove -> %w", err)
	}

	return nil
}

func (r *WaitlistRepository) Reorder(ctx context.Context, id uint, newPosition int) (domain.WaitlistEntry, error) {
	moved, err := r.dao.Reorder(ctx, id, newPosition)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("r.dao.Reorder -> %w", err)
	}

	return r.daoToDomain(moved), nil
}

func (r *WaitlistRepository) daoToDomain(e dao.WaitlistEntry) domain.WaitlistEntry {
	return domain.WaitlistEntry{
		ID:                    e.ID,
		StudentID:             e.StudentID,
		CourseID:              e.CourseID,
		Position:              e.WaitlistPosition,
		Status:                domain.WaitlistStatus(e.Status),
		NotificationSent:      e.NotificationSent,
		NotificationSentAt:    e.NotificationSentAt,
		NotificationExpiresAt: e.NotificationExpiresAt,
		PaymentLinkToken:      e.PaymentLinkToken,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}
