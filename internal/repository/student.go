package repository

import (
	"context"
	"fmt"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository/dao"
)

var ErrStudentNotFound = dao.ErrStudentNotFound

type StudentDAO interface {
	FindByID(ctx context.Context, id uint) (dao.Student, error)
	FindByEmail(ctx context.Context, email string) (dao.Student, error)
	UpsertByEmail(ctx context.Context, student dao.Student) (dao.Student, error)
	UpdateType(ctx context.Context, id uint, studentType string, forceIncomplete bool) (dao.Student, error)
	BulkReset(ctx context.Context) error
}

type StudentRepository struct {
	dao StudentDAO
}

func NewStudentRepository(dao StudentDAO) *StudentRepository {
	return &StudentRepository{
		dao: dao,
	}
}

func (r *StudentRepository) FindByID(ctx context.Context, id uint) (domain.Student, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Student{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (domain.Student, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.Student{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *StudentRepository) UpsertByEmail(ctx context.Context, student domain.Student) (domain.Student, error) {
	upserted, err := r.dao.UpsertByEmail(ctx, r.domainToDao(student))
	if err != nil {
		return domain.Student{}, fmt.Errorf("r.dao.UpsertByEmail -> %w", err)
	}

	return r.daoToDomain(upserted), nil
}

func (r *StudentRepository) UpdateType(ctx context.Context, id uint, studentType domain.StudentType, forceIncomplete bool) (domain.Student, error) {
	updated, err := r.dao.UpdateType(ctx, id, string(studentType), forceIncomplete)
	if err != nil {
		return domain.Student{}, fmt.Errorf("r.dao.UpdateType -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *StudentRepository) BulkReset(ctx context.Context) error {
	if err := r.dao.BulkReset(ctx); err != nil {
		return fmt.Errorf("r.dao.BulkReset -> %w", err)
	}

	return nil
}

func (r *StudentRepository) daoToDomain(s dao.Student) domain.Student {
	return domain.Student{
		ID:               s.ID,
		Email:            s.Email,
		FirstName:        s.FirstName,
		LastName:         s.LastName,
		Phone:            s.Phone,
		EmergencyContact: s.EmergencyContact,
		DanceExperience:  s.DanceExperience,
		InstagramHandle:  s.InstagramHandle,
		StudentType:      domain.StudentType(s.StudentType),
		ProfileComplete:  s.ProfileComplete,
		AdminClassified:  s.AdminClassified,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (r *StudentRepository) domainToDao(s domain.Student) dao.Student {
	return dao.Student{
		ID:               s.ID,
		Email:            s.Email,
		FirstName:        s.FirstName,
		LastName:         s.LastName,
		Phone:            s.Phone,
		EmergencyContact: s.EmergencyContact,
		DanceExperience:  s.DanceExperience,
		InstagramHandle:  s.InstagramHandle,
		StudentType:      string(s.StudentType),
		ProfileComplete:  s.ProfileComplete,
		AdminClassified:  s.AdminClassified,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
