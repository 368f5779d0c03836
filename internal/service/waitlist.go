package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gouthamseattle/dance-registration-portal/internal/config"
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/mailer"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository"
)

var (
	ErrWaitlistEntryNotFound = repository.ErrWaitlistEntryNotFound
	ErrPositionOutOfRange    = repository.ErrPositionOutOfRange
)

type WaitlistRepository interface {
	FindByID(ctx context.Context, id uint) (domain.WaitlistEntry, error)
	ListByCourse(ctx context.Context, courseID uint) ([]domain.WaitlistEntry, error)
	JoinOrReactivate(ctx context.Context, studentID, courseID uint) (domain.WaitlistEntry, error)
	MarkNotified(ctx context.Context, id uint, token string, sentAt, expiresAt time.Time) (domain.WaitlistEntry, error)
	FindNextActive(ctx context.Context, courseID uint) (domain.WaitlistEntry, error)
	Remove(ctx context.Context, id uint) error
	Reorder(ctx context.Context, id uint, newPosition int) (domain.WaitlistEntry, error)
}

type WaitlistStudentRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Student, error)
	UpsertByEmail(ctx context.Context, student domain.Student) (domain.Student, error)
}

type WaitlistCourseRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Course, error)
}

// WaitlistService owns entry lifecycle and strict position ordering.
// Ordering math is serialized per course by the repository's transactions;
// this layer drives the notification workflow.
type WaitlistService struct {
	repo        WaitlistRepository
	studentRepo WaitlistStudentRepository
	courseRepo  WaitlistCourseRepository
	mailer      mailer.Mailer
	conf        *config.AppConfig
}

func NewWaitlistService(
	repo WaitlistRepository,
	studentRepo WaitlistStudentRepository,
	courseRepo WaitlistCourseRepository,
	m mailer.Mailer,
	conf *config.AppConfig,
) *WaitlistService {
	return &WaitlistService{
		repo:        repo,
		studentRepo: studentRepo,
		courseRepo:  courseRepo,
		mailer:      m,
		conf:        conf,
	}
}

type NotifyResult struct {
	Notified   bool                 `json:"notified"`
	Entry      domain.WaitlistEntry `json:"entry,omitempty"`
	EmailSent  bool                 `json:"email_sent"`
	EmailError string               `json:"email_error,omitempty"`
}

// Join puts the student in line. An active entry is returned unchanged; a
// notified entry that didn't convert is reactivated at its old position.
func (s *WaitlistService) Join(ctx context.Context, profile domain.Student, courseID uint) (domain.WaitlistEntry, error) {
	profile.ProfileComplete = profileComplete(profile)

	student, err := s.studentRepo.UpsertByEmail(ctx, profile)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("s.studentRepo.UpsertByEmail -> %w", err)
	}

	entry, err := s.repo.JoinOrReactivate(ctx, student.ID, courseID)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("s.repo.JoinOrReactivate -> %w", err)
	}

	return entry, nil
}

// Notify offers the spot to one entry: a fresh single-use token, an expiry
// window, and a tokenized registration link by email. The email's failure
// never rolls back the state change.
func (s *WaitlistService) Notify(ctx context.Context, entryID uint, expiresHours int) (NotifyResult, error) {
	if expiresHours <= 0 {
		expiresHours = s.conf.RegistrationPolicy().WaitlistNotifyExpiryHours
	}

	now := time.Now()
	token := uuid.NewString()

	entry, err := s.repo.MarkNotified(ctx, entryID, token, now, now.Add(time.Duration(expiresHours)*time.Hour))
	if err != nil {
		return NotifyResult{}, fmt.Errorf("s.repo.MarkNotified -> %w", err)
	}

	result := NotifyResult{Notified: true, Entry: entry}

	student, err := s.studentRepo.FindByID(ctx, entry.StudentID)
	if err != nil {
		result.EmailError = err.Error()
		return result, nil
	}
	course, err := s.courseRepo.FindByID(ctx, entry.CourseID)
	if err != nil {
		result.EmailError = err.Error()
		return result, nil
	}

	link := fmt.Sprintf("%v?token=%v", s.conf.Mail.RegistrationBaseURL, token)
	result.EmailSent, result.EmailError = sendMail(ctx, s.mailer, mailer.Message{
		ToName:  student.FirstName,
		ToEmail: student.Email,
		Subject: fmt.Sprintf("A spot opened up in %v", course.Name),
		TextBody: fmt.Sprintf(
			"Hi %v, a spot opened up in %v. Register within %v hours to claim it: %v",
			student.FirstName, course.Name, expiresHours, link),
	})

	return result, nil
}

// NotifyNext offers the freed spot to the lowest-position active entry.
// An empty waitlist is a no-op success, not an error.
func (s *WaitlistService) NotifyNext(ctx context.Context, courseID uint) (NotifyResult, error) {
	next, err := s.repo.FindNextActive(ctx, courseID)
	if err != nil {
		if errors.Is(err, ErrWaitlistEntryNotFound) {
			return NotifyResult{Notified: false}, nil
		}

		return NotifyResult{}, fmt.Errorf("s.repo.FindNextActive -> %w", err)
	}

	return s.Notify(ctx, next.ID, 0)
}

func (s *WaitlistService) Remove(ctx context.Context, entryID uint) error {
	if err := s.repo.Remove(ctx, entryID); err != nil {
		return fmt.Errorf("s.repo.Remove -> %w", err)
	}

	return nil
}

func (s *WaitlistService) Reorder(ctx context.Context, entryID uint, newPosition int) (domain.WaitlistEntry, error) {
	moved, err := s.repo.Reorder(ctx, entryID, newPosition)
	if err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("s.repo.Reorder -> %w", err)
	}

	return moved, nil
}

func (s *WaitlistService) ListForCourse(ctx context.Context, courseID uint) ([]domain.WaitlistEntry, error) {
	entries, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByCourse -> %w", err)
	}

	return entries, nil
}
