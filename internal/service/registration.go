package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gouthamseattle/dance-registration-portal/internal/config"
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/mailer"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository"
)

var (
	ErrRegistrationNotFound    = repository.ErrRegistrationNotFound
	ErrCourseFull              = repository.ErrCourseFull
	ErrDuplicateRegistration   = repository.ErrDuplicateRegistration
	ErrInvalidStatusTransition = repository.ErrInvalidStatusTransition
	ErrCourseInactive          = repository.ErrCourseInactive
	ErrEmptyBundle             = errors.New("bundle contains no courses")
	ErrBundleTooLarge          = errors.New("bundle exceeds the drop-in class limit")
	ErrNotificationExpired     = errors.New("waitlist notification has expired")
)

type RegistrationRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByStudent(ctx context.Context, studentID uint) ([]domain.Registration, error)
	CheckCapacity(ctx context.Context, courseID uint) (int, int, error)
	CreatePending(ctx context.Context, reg domain.Registration) (domain.Registration, bool, error)
	CreatePendingBatch(ctx context.Context, regs []domain.Registration) ([]domain.Registration, error)
	ConfirmPayment(ctx context.Context, id uint, method, note string) (domain.Registration, error)
	MarkPaymentFailed(ctx context.Context, id uint) (domain.Registration, error)
	Cancel(ctx context.Context, id uint, reason, actor string) (domain.Registration, error)
	Uncancel(ctx context.Context, id uint) (domain.Registration, error)
	UpdateAmount(ctx context.Context, id uint, amountCents int64) (domain.Registration, error)
}

type RegistrationCourseRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Course, error)
	FindActive(ctx context.Context) ([]domain.Course, error)
}

type RegistrationStudentRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Student, error)
	UpsertByEmail(ctx context.Context, student domain.Student) (domain.Student, error)
}

type RegistrationWaitlistRepository interface {
	FindByToken(ctx context.Context, token string) (domain.WaitlistEntry, error)
}

// RegistrationService owns the registration ledger and the capacity gate
// policy around it. The atomic admission math itself lives in the
// repository's transactional operations; this layer applies eligibility
// and bundle business rules before any write happens.
type RegistrationService struct {
	repo         RegistrationRepository
	courseRepo   RegistrationCourseRepository
	studentRepo  RegistrationStudentRepository
	waitlistRepo RegistrationWaitlistRepository
	mailer       mailer.Mailer
	conf         *config.AppConfig
}

func NewRegistrationService(
	repo RegistrationRepository,
	courseRepo RegistrationCourseRepository,
	studentRepo RegistrationStudentRepository,
	waitlistRepo RegistrationWaitlistRepository,
	m mailer.Mailer,
	conf *config.AppConfig,
) *RegistrationService {
	return &RegistrationService{
		repo:         repo,
		courseRepo:   courseRepo,
		studentRepo:  studentRepo,
		waitlistRepo: waitlistRepo,
		mailer:       m,
		conf:         conf,
	}
}

type RegisterResult struct {
	Registration domain.Registration `json:"registration"`
	Deduped      bool                `json:"deduped"`
}

type BundleResult struct {
	Registrations []domain.Registration `json:"registrations"`
}

type ComboResult struct {
	HouseRegistrations []domain.Registration `json:"house_registrations"`
	CrewRegistrations  []domain.Registration `json:"crew_registrations"`
}

type ConfirmResult struct {
	Registration domain.Registration `json:"registration"`
	EmailSent    bool                `json:"email_sent"`
	EmailError   string              `json:"email_error,omitempty"`
}

type CancelResult struct {
	Registration domain.Registration `json:"registration"`
	EmailSent    bool                `json:"email_sent"`
	EmailError   string              `json:"email_error,omitempty"`
}

type UncancelResult struct {
	Registration      domain.Registration `json:"registration"`
	CapacityAvailable bool                `json:"capacity_available"`
}

// CheckCapacity reads the capacity gate for display purposes.
func (s *RegistrationService) CheckCapacity(ctx context.Context, courseID uint) (capacity, completed int, err error) {
	capacity, completed, err = s.repo.CheckCapacity(ctx, courseID)
	if err != nil {
		return 0, 0, fmt.Errorf("s.repo.CheckCapacity -> %w", err)
	}

	return capacity, completed, nil
}

// Register runs the single-course flow: upsert the student, apply the
// eligibility rule, then admit through the capacity gate and persist the
// pending registration. A double submission returns the existing pending row.
func (s *RegistrationService) Register(ctx context.Context, profile domain.Student, courseID uint, amountCents int64) (RegisterResult, error) {
	profile.ProfileComplete = profileComplete(profile)

	student, err := s.studentRepo.UpsertByEmail(ctx, profile)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("s.studentRepo.UpsertByEmail -> %w", err)
	}

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("s.courseRepo.FindByID -> %w", err)
	}
	if !domain.CourseVisibleTo(course, student.StudentType) {
		return RegisterResult{}, &AccessDeniedError{RequiredType: course.RequiredStudentType}
	}

	reg := domain.Registration{
		StudentID:          student.ID,
		CourseID:           course.ID,
		PaymentAmountCents: amountCents,
		RegistrationType:   defaultRegistrationType(course.CourseType),
	}

	created, deduped, err := s.repo.CreatePending(ctx, reg)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("s.repo.CreatePending -> %w", err)
	}

	return RegisterResult{Registration: created, Deduped: deduped}, nil
}

// RegisterFromWaitlist converts a notified waitlist entry using its
// single-use payment link token. The entry's spot was freed by an admin
// action, so the normal capacity gate still applies.
func (s *RegistrationService) RegisterFromWaitlist(ctx context.Context, token string, amountCents int64) (RegisterResult, error) {
	entry, err := s.waitlistRepo.FindByToken(ctx, token)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("s.waitlistRepo.FindByToken -> %w", err)
	}
	if entry.NotificationExpired(time.Now()) {
		return RegisterResult{}, ErrNotificationExpired
	}

	course, err := s.courseRepo.FindByID(ctx, entry.CourseID)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("s.courseRepo.FindByID -> %w", err)
	}

	reg := domain.Registration{
		StudentID:           entry.StudentID,
		CourseID:            entry.CourseID,
		PaymentAmountCents:  amountCents,
		RegistrationType:    defaultRegistrationType(course.CourseType),
		CreatedFromWaitlist: true,
	}

	created, deduped, err := s.repo.CreatePending(ctx, reg)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("s.repo.CreatePending -> %w", err)
	}

	return RegisterResult{Registration: created, Deduped: deduped}, nil
}

// RegisterBundle admits 1-3 drop-in classes as one all-or-nothing package.
// Bundle-only rules checked here: every course must share the same class
// time (no mixing levels), and no class may fall on or after the session's
// final-week cutoff.
func (s *RegistrationService) RegisterBundle(ctx context.Context, profile domain.Student, courseIDs []uint, totalAmountCents int64) (BundleResult, error) {
	policy := s.conf.RegistrationPolicy()

	courseIDs = dedupeIDs(courseIDs)
	if len(courseIDs) == 0 {
		return BundleResult{}, ErrEmptyBundle
	}
	if len(courseIDs) > policy.MaxBundleCourses {
		return BundleResult{}, ErrBundleTooLarge
	}

	profile.ProfileComplete = profileComplete(profile)

	student, err := s.studentRepo.UpsertByEmail(ctx, profile)
	if err != nil {
		return BundleResult{}, fmt.Errorf("s.studentRepo.UpsertByEmail -> %w", err)
	}

	// An unset cutoff disables the final-week gate; a malformed one is a
	// config error, not a silent pass.
	var cutoff time.Time
	if policy.DropInCutoffDate != "" {
		cutoff, err = policy.CutoffDate()
		if err != nil {
			return BundleResult{}, fmt.Errorf("policy.CutoffDate -> %w", err)
		}
	}

	var allSlots []domain.Slot
	for _, courseID := range courseIDs {
		course, err := s.courseRepo.FindByID(ctx, courseID)
		if err != nil {
			return BundleResult{}, fmt.Errorf("s.courseRepo.FindByID -> %w", err)
		}
		if !domain.CourseVisibleTo(course, student.StudentType) {
			return BundleResult{}, &AccessDeniedError{RequiredType: course.RequiredStudentType}
		}

		for _, slot := range course.Slots {
			if domain.IsWeekGated(slot, cutoff) {
				return BundleResult{}, &BundleRejectionError{Reason: BundleReasonWeekGated, CourseID: courseID}
			}
		}
		allSlots = append(allSlots, course.Slots...)
	}

	if !domain.BundleSingleTrack(allSlots) {
		return BundleResult{}, &BundleRejectionError{Reason: BundleReasonMixedLevels}
	}

	regs := splitBundleAmount(student.ID, courseIDs, totalAmountCents, domain.RegistrationTypeDropInBundle)

	created, err := s.repo.CreatePendingBatch(ctx, regs)
	if err != nil {
		if courseID, ok := repository.FullCourseID(err); ok {
			return BundleResult{}, &BundleRejectionError{Reason: BundleReasonCourseFull, CourseID: courseID}
		}

		return BundleResult{}, fmt.Errorf("s.repo.CreatePendingBatch -> %w", err)
	}

	return BundleResult{Registrations: created}, nil
}

// RegisterCrewHouseCombo bundles the selected house classes with unlimited
// crew practice access. Crew members only.
func (s *RegistrationService) RegisterCrewHouseCombo(ctx context.Context, profile domain.Student, houseCourseIDs []uint, totalAmountCents int64) (ComboResult, error) {
	houseCourseIDs = dedupeIDs(houseCourseIDs)
	if len(houseCourseIDs) == 0 {
		return ComboResult{}, ErrEmptyBundle
	}

	profile.ProfileComplete = profileComplete(profile)

	student, err := s.studentRepo.UpsertByEmail(ctx, profile)
	if err != nil {
		return ComboResult{}, fmt.Errorf("s.studentRepo.UpsertByEmail -> %w", err)
	}
	if !domain.ComboEligible(student) {
		return ComboResult{}, &AccessDeniedError{RequiredType: domain.StudentTypeCrewMember}
	}

	for _, courseID := range houseCourseIDs {
		if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
			return ComboResult{}, fmt.Errorf("s.courseRepo.FindByID -> %w", err)
		}
	}

	active, err := s.courseRepo.FindActive(ctx)
	if err != nil {
		return ComboResult{}, fmt.Errorf("s.courseRepo.FindActive -> %w", err)
	}

	var crewCourseIDs []uint
	for _, course := range active {
		if course.CourseType == domain.CourseTypeCrewPractice {
			crewCourseIDs = append(crewCourseIDs, course.ID)
		}
	}

	regs := splitBundleAmount(student.ID, houseCourseIDs, totalAmountCents, domain.RegistrationTypeCrewHouseCombo)
	for _, crewID := range crewCourseIDs {
		regs = append(regs, domain.Registration{
			StudentID:        student.ID,
			CourseID:         crewID,
			RegistrationType: domain.RegistrationTypeCrewUnlimited,
		})
	}

	created, err := s.repo.CreatePendingBatch(ctx, regs)
	if err != nil {
		if courseID, ok := repository.FullCourseID(err); ok {
			return ComboResult{}, &BundleRejectionError{Reason: BundleReasonCourseFull, CourseID: courseID}
		}

		return ComboResult{}, fmt.Errorf("s.repo.CreatePendingBatch -> %w", err)
	}

	result := ComboResult{}
	house := make(map[uint]bool, len(houseCourseIDs))
	for _, id := range houseCourseIDs {
		house[id] = true
	}
	for _, reg := range created {
		if house[reg.CourseID] {
			result.HouseRegistrations = append(result.HouseRegistrations, reg)
		} else {
			result.CrewRegistrations = append(result.CrewRegistrations, reg)
		}
	}

	return result, nil
}

// ConfirmPayment moves the registration to completed; from this point it
// counts against capacity. The confirmation email is sent after the commit
// and its failure only sets the soft flag.
func (s *RegistrationService) ConfirmPayment(ctx context.Context, registrationID uint, method, note string) (ConfirmResult, error) {
	confirmed, err := s.repo.ConfirmPayment(ctx, registrationID, method, note)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("s.repo.ConfirmPayment -> %w", err)
	}

	result := ConfirmResult{Registration: confirmed}

	student, err := s.studentRepo.FindByID(ctx, confirmed.StudentID)
	if err != nil {
		result.EmailError = err.Error()
		return result, nil
	}
	course, err := s.courseRepo.FindByID(ctx, confirmed.CourseID)
	if err != nil {
		result.EmailError = err.Error()
		return result, nil
	}

	result.EmailSent, result.EmailError = sendMail(ctx, s.mailer, mailer.Message{
		ToName:   student.FirstName,
		ToEmail:  student.Email,
		Subject:  fmt.Sprintf("You're registered: %v", course.Name),
		TextBody: fmt.Sprintf("Hi %v, your payment for %v is confirmed. See you in class!", student.FirstName, course.Name),
	})

	return result, nil
}

// MarkPaymentFailed moves pending -> failed.
func (s *RegistrationService) MarkPaymentFailed(ctx context.Context, registrationID uint) (domain.Registration, error) {
	failed, err := s.repo.MarkPaymentFailed(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.MarkPaymentFailed -> %w", err)
	}

	return failed, nil
}

// Cancel frees the spot immediately. Waitlist promotion stays an explicit
// admin action; nothing is auto-notified here.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID uint, reason, actor string) (CancelResult, error) {
	canceled, err := s.repo.Cancel(ctx, registrationID, reason, actor)
	if err != nil {
		return CancelResult{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	result := CancelResult{Registration: canceled}

	student, err := s.studentRepo.FindByID(ctx, canceled.StudentID)
	if err != nil {
		result.EmailError = err.Error()
		return result, nil
	}
	course, err := s.courseRepo.FindByID(ctx, canceled.CourseID)
	if err != nil {
		result.EmailError = err.Error()
		return result, nil
	}

	result.EmailSent, result.EmailError = sendMail(ctx, s.mailer, mailer.Message{
		ToName:   student.FirstName,
		ToEmail:  student.Email,
		Subject:  fmt.Sprintf("Registration canceled: %v", course.Name),
		TextBody: fmt.Sprintf("Hi %v, your registration for %v has been canceled.", student.FirstName, course.Name),
	})

	return result, nil
}

// Uncancel restores the registration to pending; payment must be
// reconfirmed before it counts again. The result reports whether the
// course currently has room, so the admin can decide how to proceed.
func (s *RegistrationService) Uncancel(ctx context.Context, registrationID uint) (UncancelResult, error) {
	uncanceled, err := s.repo.Uncancel(ctx, registrationID)
	if err != nil {
		return UncancelResult{}, fmt.Errorf("s.repo.Uncancel -> %w", err)
	}

	capacity, completed, err := s.repo.CheckCapacity(ctx, uncanceled.CourseID)
	if err != nil {
		return UncancelResult{}, fmt.Errorf("s.repo.CheckCapacity -> %w", err)
	}

	return UncancelResult{
		Registration:      uncanceled,
		CapacityAvailable: completed < capacity,
	}, nil
}

// EditFields carries the admin-editable parts of a registration. Payment
// status is never edited directly; it only moves through transitions.
type EditFields struct {
	AmountCents      *int64
	Phone            *string
	EmergencyContact *string
}

func (s *RegistrationService) Edit(ctx context.Context, registrationID uint, fields EditFields) (domain.Registration, error) {
	reg, err := s.repo.FindByID(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if fields.Phone != nil || fields.EmergencyContact != nil {
		student, err := s.studentRepo.FindByID(ctx, reg.StudentID)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("s.studentRepo.FindByID -> %w", err)
		}
		if fields.Phone != nil {
			student.Phone = *fields.Phone
		}
		if fields.EmergencyContact != nil {
			student.EmergencyContact = *fields.EmergencyContact
		}
		if _, err := s.studentRepo.UpsertByEmail(ctx, student); err != nil {
			return domain.Registration{}, fmt.Errorf("s.studentRepo.UpsertByEmail -> %w", err)
		}
	}

	if fields.AmountCents != nil {
		reg, err = s.repo.UpdateAmount(ctx, registrationID, *fields.AmountCents)
		if err != nil {
			return domain.Registration{}, fmt.Errorf("s.repo.UpdateAmount -> %w", err)
		}
	}

	return reg, nil
}

func (s *RegistrationService) GetRegistration(ctx context.Context, id uint) (domain.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return reg, nil
}

// ListForStudent returns the student's full registration history across all
// statuses, ordered by creation.
func (s *RegistrationService) ListForStudent(ctx context.Context, studentID uint) ([]domain.Registration, error) {
	if _, err := s.studentRepo.FindByID(ctx, studentID); err != nil {
		return nil, fmt.Errorf("s.studentRepo.FindByID -> %w", err)
	}

	regs, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByStudent -> %w", err)
	}

	return regs, nil
}

func defaultRegistrationType(courseType domain.CourseType) string {
	switch courseType {
	case domain.CourseTypeMultiWeek:
		return domain.RegistrationTypeFullCourse
	case domain.CourseTypeCrewPractice:
		return domain.RegistrationTypeCrewUnlimited
	default:
		return domain.RegistrationTypePerClass
	}
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	return out
}

// splitBundleAmount spreads the bundle total evenly across the member
// courses, pushing any remainder cents onto the first one.
func splitBundleAmount(studentID uint, courseIDs []uint, totalCents int64, regType string) []domain.Registration {
	n := int64(len(courseIDs))
	per := totalCents / n
	remainder := totalCents - per*n

	regs := make([]domain.Registration, len(courseIDs))
	for i, courseID := range courseIDs {
		amount := per
		if i == 0 {
			amount += remainder
		}
		regs[i] = domain.Registration{
			StudentID:          studentID,
			CourseID:           courseID,
			PaymentAmountCents: amount,
			RegistrationType:   regType,
		}
	}

	return regs
}
