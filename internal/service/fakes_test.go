package service

import (
	"context"
	"strings"
	"time"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/mailer"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository/dao"
)

// In-memory stand-ins for the repository layer, mirroring the transactional
// semantics of the real DAOs closely enough for the business rules to be
// exercised without a database.

type fakeCourseRepo struct {
	courses map[uint]domain.Course
	nextID  uint
}

func newFakeCourseRepo(courses ...domain.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: make(map[uint]domain.Course), nextID: 1}
	for _, c := range courses {
		r.courses[c.ID] = c
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

func (r *fakeCourseRepo) Create(_ context.Context, course domain.Course) (domain.Course, error) {
	course.ID = r.nextID
	r.nextID++
	r.courses[course.ID] = course
	return course, nil
}

func (r *fakeCourseRepo) FindByID(_ context.Context, id uint) (domain.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return domain.Course{}, repository.ErrCourseNotFound
	}
	return course, nil
}

func (r *fakeCourseRepo) FindActive(_ context.Context) ([]domain.Course, error) {
	var active []domain.Course
	for _, c := range r.courses {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

type fakeStudentRepo struct {
	students map[uint]domain.Student
	nextID   uint
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[uint]domain.Student), nextID: 1}
}

func (r *fakeStudentRepo) FindByID(_ context.Context, id uint) (domain.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return domain.Student{}, repository.ErrStudentNotFound
	}
	return student, nil
}

func (r *fakeStudentRepo) FindByEmail(_ context.Context, email string) (domain.Student, error) {
	for _, s := range r.students {
		if strings.EqualFold(s.Email, email) {
			return s, nil
		}
	}
	return domain.Student{}, repository.ErrStudentNotFound
}

func (r *fakeStudentRepo) UpsertByEmail(_ context.Context, student domain.Student) (domain.Student, error) {
	for id, existing := range r.students {
		if strings.EqualFold(existing.Email, student.Email) {
			student.ID = id
			student.StudentType = existing.StudentType
			student.AdminClassified = existing.AdminClassified
			r.students[id] = student
			return student, nil
		}
	}

	student.ID = r.nextID
	r.nextID++
	if student.StudentType == "" {
		student.StudentType = domain.StudentTypeGeneral
	}
	r.students[student.ID] = student
	return student, nil
}

func (r *fakeStudentRepo) UpdateType(_ context.Context, id uint, studentType domain.StudentType, forceIncomplete bool) (domain.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return domain.Student{}, repository.ErrStudentNotFound
	}
	student.StudentType = studentType
	student.AdminClassified = true
	if forceIncomplete {
		student.ProfileComplete = false
	}
	r.students[id] = student
	return student, nil
}

func (r *fakeStudentRepo) BulkReset(_ context.Context) error {
	r.students = make(map[uint]domain.Student)
	r.nextID = 1
	return nil
}

type fakeRegistrationRepo struct {
	courses       *fakeCourseRepo
	registrations map[uint]domain.Registration
	nextID        uint
}

func newFakeRegistrationRepo(courses *fakeCourseRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		courses:       courses,
		registrations: make(map[uint]domain.Registration),
		nextID:        1,
	}
}

func (r *fakeRegistrationRepo) FindByID(_ context.Context, id uint) (domain.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	return reg, nil
}

func (r *fakeRegistrationRepo) FindByStudent(_ context.Context, studentID uint) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, reg := range r.registrations {
		if reg.StudentID == studentID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) CheckCapacity(_ context.Context, courseID uint) (int, int, error) {
	course, ok := r.courses.courses[courseID]
	if !ok {
		return 0, 0, repository.ErrCourseNotFound
	}
	return course.TotalCapacity(), r.completedCount(courseID), nil
}

func (r *fakeRegistrationRepo) completedCount(courseID uint) int {
	count := 0
	for _, reg := range r.registrations {
		if reg.CourseID == courseID && reg.CountsAgainstCapacity() {
			count++
		}
	}
	return count
}

func (r *fakeRegistrationRepo) admit(reg domain.Registration) (domain.Registration, bool, error) {
	course, ok := r.courses.courses[reg.CourseID]
	if !ok {
		return domain.Registration{}, false, repository.ErrCourseNotFound
	}
	if !course.IsActive {
		return domain.Registration{}, false, repository.ErrCourseInactive
	}

	for _, existing := range r.registrations {
		if existing.StudentID != reg.StudentID || existing.CourseID != reg.CourseID {
			continue
		}
		switch existing.PaymentStatus {
		case domain.PaymentStatusPending:
			return existing, true, nil
		case domain.PaymentStatusCompleted:
			return domain.Registration{}, false, repository.ErrDuplicateRegistration
		}
	}

	if r.completedCount(reg.CourseID) >= course.TotalCapacity() {
		return domain.Registration{}, false, &dao.CourseFullError{CourseID: reg.CourseID}
	}

	reg.ID = r.nextID
	r.nextID++
	reg.PaymentStatus = domain.PaymentStatusPending
	reg.CreatedAt = time.Now()
	r.registrations[reg.ID] = reg
	return reg, false, nil
}

func (r *fakeRegistrationRepo) CreatePending(_ context.Context, reg domain.Registration) (domain.Registration, bool, error) {
	return r.admit(reg)
}

func (r *fakeRegistrationRepo) CreatePendingBatch(_ context.Context, regs []domain.Registration) ([]domain.Registration, error) {
	snapshot := make(map[uint]domain.Registration, len(r.registrations))
	for id, reg := range r.registrations {
		snapshot[id] = reg
	}
	snapshotNext := r.nextID

	created := make([]domain.Registration, 0, len(regs))
	for _, reg := range regs {
		admitted, _, err := r.admit(reg)
		if err != nil {
			r.registrations = snapshot
			r.nextID = snapshotNext
			return nil, err
		}
		created = append(created, admitted)
	}
	return created, nil
}

func (r *fakeRegistrationRepo) ConfirmPayment(_ context.Context, id uint, method, note string) (domain.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if !reg.CanTransitionTo(domain.PaymentStatusCompleted) {
		return domain.Registration{}, repository.ErrInvalidStatusTransition
	}

	course := r.courses.courses[reg.CourseID]
	if r.completedCount(reg.CourseID) >= course.TotalCapacity() {
		return domain.Registration{}, &dao.CourseFullError{CourseID: reg.CourseID}
	}

	reg.PaymentStatus = domain.PaymentStatusCompleted
	reg.PaymentMethod = method
	reg.PaymentNote = note
	r.registrations[id] = reg
	return reg, nil
}

func (r *fakeRegistrationRepo) MarkPaymentFailed(_ context.Context, id uint) (domain.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if !reg.CanTransitionTo(domain.PaymentStatusFailed) {
		return domain.Registration{}, repository.ErrInvalidStatusTransition
	}
	reg.PaymentStatus = domain.PaymentStatusFailed
	r.registrations[id] = reg
	return reg, nil
}

func (r *fakeRegistrationRepo) Cancel(_ context.Context, id uint, reason, actor string) (domain.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if !reg.CanTransitionTo(domain.PaymentStatusCanceled) {
		return domain.Registration{}, repository.ErrInvalidStatusTransition
	}
	now := time.Now()
	reg.PaymentStatus = domain.PaymentStatusCanceled
	reg.CanceledAt = &now
	reg.CanceledBy = actor
	reg.CancellationReason = reason
	r.registrations[id] = reg
	return reg, nil
}

func (r *fakeRegistrationRepo) Uncancel(_ context.Context, id uint) (domain.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	if !reg.CanTransitionTo(domain.PaymentStatusPending) {
		return domain.Registration{}, repository.ErrInvalidStatusTransition
	}
	reg.PaymentStatus = domain.PaymentStatusPending
	reg.CanceledAt = nil
	reg.CanceledBy = ""
	reg.CancellationReason = ""
	r.registrations[id] = reg
	return reg, nil
}

func (r *fakeRegistrationRepo) UpdateAmount(_ context.Context, id uint, amountCents int64) (domain.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}
	reg.PaymentAmountCents = amountCents
	r.registrations[id] = reg
	return reg, nil
}

type fakeWaitlistRepo struct {
	courses *fakeCourseRepo
	entries map[uint]domain.WaitlistEntry
	nextID  uint
}

func newFakeWaitlistRepo(courses *fakeCourseRepo) *fakeWaitlistRepo {
	return &fakeWaitlistRepo{
		courses: courses,
		entries: make(map[uint]domain.WaitlistEntry),
		nextID:  1,
	}
}

func (r *fakeWaitlistRepo) FindByID(_ context.Context, id uint) (domain.WaitlistEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return domain.WaitlistEntry{}, repository.ErrWaitlistEntryNotFound
	}
	return entry, nil
}

func (r *fakeWaitlistRepo) FindByToken(_ context.Context, token string) (domain.WaitlistEntry, error) {
	for _, e := range r.entries {
		if e.PaymentLinkToken == token && token != "" {
			return e, nil
		}
	}
	return domain.WaitlistEntry{}, repository.ErrWaitlistEntryNotFound
}

func (r *fakeWaitlistRepo) ListByCourse(_ context.Context, courseID uint) ([]domain.WaitlistEntry, error) {
	var out []domain.WaitlistEntry
	for pos := 1; ; pos++ {
		found := false
		for _, e := range r.entries {
			if e.CourseID == courseID && e.Position == pos {
				out = append(out, e)
				found = true
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (r *fakeWaitlistRepo) JoinOrReactivate(_ context.Context, studentID, courseID uint) (domain.WaitlistEntry, error) {
	course, ok := r.courses.courses[courseID]
	if !ok {
		return domain.WaitlistEntry{}, repository.ErrCourseNotFound
	}
	if !course.IsActive {
		return domain.WaitlistEntry{}, repository.ErrCourseInactive
	}

	maxPos := 0
	for _, e := range r.entries {
		if e.CourseID != courseID {
			continue
		}
		if e.Position > maxPos {
			maxPos = e.Position
		}
		if e.StudentID == studentID {
			if e.Status == domain.WaitlistStatusNotified {
				e.Status = domain.WaitlistStatusActive
				e.NotificationSent = false
				e.NotificationSentAt = nil
				e.NotificationExpiresAt = nil
				e.PaymentLinkToken = ""
				r.entries[e.ID] = e
			}
			return r.entries[e.ID], nil
		}
	}

	entry := domain.WaitlistEntry{
		ID:        r.nextID,
		StudentID: studentID,
		CourseID:  courseID,
		Position:  maxPos + 1,
		Status:    domain.WaitlistStatusActive,
		CreatedAt: time.Now(),
	}
	r.nextID++
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeWaitlistRepo) MarkNotified(_ context.Context, id uint, token string, sentAt, expiresAt time.Time) (domain.WaitlistEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return domain.WaitlistEntry{}, repository.ErrWaitlistEntryNotFound
	}
	entry.Status = domain.WaitlistStatusNotified
	entry.NotificationSent = true
	entry.NotificationSentAt = &sentAt
	entry.NotificationExpiresAt = &expiresAt
	entry.PaymentLinkToken = token
	r.entries[id] = entry
	return entry, nil
}

func (r *fakeWaitlistRepo) FindNextActive(_ context.Context, courseID uint) (domain.WaitlistEntry, error) {
	var next domain.WaitlistEntry
	found := false
	for _, e := range r.entries {
		if e.CourseID != courseID || e.Status != domain.WaitlistStatusActive {
			continue
		}
		if !found || e.Position < next.Position {
			next = e
			found = true
		}
	}
	if !found {
		return domain.WaitlistEntry{}, repository.ErrWaitlistEntryNotFound
	}
	return next, nil
}

func (r *fakeWaitlistRepo) Remove(_ context.Context, id uint) error {
	entry, ok := r.entries[id]
	if !ok {
		return repository.ErrWaitlistEntryNotFound
	}
	delete(r.entries, id)
	for eid, e := range r.entries {
		if e.CourseID == entry.CourseID && e.Position > entry.Position {
			e.Position--
			r.entries[eid] = e
		}
	}
	return nil
}

func (r *fakeWaitlistRepo) Reorder(_ context.Context, id uint, newPosition int) (domain.WaitlistEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return domain.WaitlistEntry{}, repository.ErrWaitlistEntryNotFound
	}

	total := 0
	for _, e := range r.entries {
		if e.CourseID == entry.CourseID {
			total++
		}
	}
	if newPosition < 1 || newPosition > total {
		return domain.WaitlistEntry{}, repository.ErrPositionOutOfRange
	}

	old := entry.Position
	for eid, e := range r.entries {
		if e.CourseID != entry.CourseID || eid == id {
			continue
		}
		switch {
		case old < newPosition && e.Position > old && e.Position <= newPosition:
			e.Position--
		case old > newPosition && e.Position >= newPosition && e.Position < old:
			e.Position++
		default:
			continue
		}
		r.entries[eid] = e
	}
	entry.Position = newPosition
	r.entries[id] = entry
	return entry, nil
}

type fakeMailer struct {
	sent []mailer.Message
	fail error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}
