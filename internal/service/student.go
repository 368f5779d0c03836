package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository"
)

var (
	ErrStudentNotFound    = repository.ErrStudentNotFound
	ErrInvalidStudentType = errors.New("invalid student type")
)

type StudentRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Student, error)
	FindByEmail(ctx context.Context, email string) (domain.Student, error)
	UpsertByEmail(ctx context.Context, student domain.Student) (domain.Student, error)
	UpdateType(ctx context.Context, id uint, studentType domain.StudentType, forceIncomplete bool) (domain.Student, error)
	BulkReset(ctx context.Context) error
}

type StudentService struct {
	repo StudentRepository
}

func NewStudentService(repo StudentRepository) *StudentService {
	return &StudentService{
		repo: repo,
	}
}

func (s *StudentService) GetStudent(ctx context.Context, id uint) (domain.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Student{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return student, nil
}

// Upsert creates the student on first contact or overwrites mutable profile
// fields last-write-wins. Classification fields are never changed here;
// profile_complete is recomputed from the submitted fields.
func (s *StudentService) Upsert(ctx context.Context, profile domain.Student) (domain.Student, error) {
	profile.ProfileComplete = profileComplete(profile)

	student, err := s.repo.UpsertByEmail(ctx, profile)
	if err != nil {
		return domain.Student{}, fmt.Errorf("s.repo.UpsertByEmail -> %w", err)
	}

	return student, nil
}

// Classify sets the student type under admin control. A promotion to
// crew_member with required profile fields missing forces
// profile_complete=false, so the student must finish their profile before
// their next course listing is served.
func (s *StudentService) Classify(ctx context.Context, studentID uint, newType domain.StudentType) (domain.Student, error) {
	if !domain.ValidStudentType(newType) {
		return domain.Student{}, ErrInvalidStudentType
	}

	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		return domain.Student{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	forceIncomplete := newType == domain.StudentTypeCrewMember && student.MissingCrewProfileFields()

	classified, err := s.repo.UpdateType(ctx, studentID, newType, forceIncomplete)
	if err != nil {
		return domain.Student{}, fmt.Errorf("s.repo.UpdateType -> %w", err)
	}

	return classified, nil
}

// BulkReset wipes all student data, registrations and waitlist entries.
// Admin-only; the sole hard-delete path in the system.
func (s *StudentService) BulkReset(ctx context.Context) error {
	if err := s.repo.BulkReset(ctx); err != nil {
		return fmt.Errorf("s.repo.BulkReset -> %w", err)
	}

	return nil
}

func profileComplete(p domain.Student) bool {
	if p.FirstName == "" || p.Email == "" || p.Phone == "" {
		return false
	}
	if p.StudentType == domain.StudentTypeCrewMember && p.MissingCrewProfileFields() {
		return false
	}

	return true
}
