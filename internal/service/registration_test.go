package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouthamseattle/dance-registration-portal/internal/config"
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		API: &config.APIConfig{},
		Registration: &config.RegistrationConfig{
			DropInCutoffDate:          "2026-01-27",
			MaxBundleCourses:          3,
			WaitlistNotifyExpiryHours: 48,
		},
		Mail: &config.MailConfig{
			RegistrationBaseURL: "https://dance.example.com/register",
		},
	}
}

func openCourse(id uint, capacity int) domain.Course {
	return domain.Course{
		ID:                  id,
		Name:                "House Foundations",
		CourseType:          domain.CourseTypeMultiWeek,
		RequiredStudentType: domain.StudentTypeAny,
		IsActive:            true,
		Slots: []domain.Slot{
			{ID: id * 10, CourseID: id, Capacity: capacity, StartTime: "19:00", EndTime: "20:00"},
		},
	}
}

func profile(email string) domain.Student {
	return domain.Student{
		Email:     email,
		FirstName: "Alex",
		Phone:     "555-0101",
	}
}

func newRegistrationFixture(courses ...domain.Course) (*RegistrationService, *fakeRegistrationRepo, *fakeWaitlistRepo, *fakeMailer) {
	courseRepo := newFakeCourseRepo(courses...)
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)
	waitlistRepo := newFakeWaitlistRepo(courseRepo)
	m := &fakeMailer{}
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, waitlistRepo, m, testConfig())
	return svc, regRepo, waitlistRepo, m
}

func TestRegisterCreatesPending(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 10))

	result, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)

	require.NoError(t, err)
	assert.False(t, result.Deduped)
	assert.Equal(t, domain.PaymentStatusPending, result.Registration.PaymentStatus)
	assert.Equal(t, domain.RegistrationTypeFullCourse, result.Registration.RegistrationType)
	assert.Equal(t, int64(5000), result.Registration.PaymentAmountCents)
}

func TestRegisterResubmitReturnsExistingPending(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 10))

	first, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	assert.True(t, second.Deduped)
	assert.Equal(t, first.Registration.ID, second.Registration.ID)
}

func TestRegisterRejectsDuplicateCompleted(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 10))

	result, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), result.Registration.ID, "venmo", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegisterCrewOnlyCourseDeniedToGeneral(t *testing.T) {
	crewCourse := openCourse(2, 10)
	crewCourse.RequiredStudentType = domain.StudentTypeCrewMember
	svc, _, _, _ := newRegistrationFixture(crewCourse)

	_, err := svc.Register(context.Background(), profile("alex@example.com"), 2, 5000)

	var accessErr *AccessDeniedError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, domain.StudentTypeCrewMember, accessErr.RequiredType)
}

func TestRegisterCourseFull(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 1))

	first, err := svc.Register(context.Background(), profile("first@example.com"), 1, 5000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), first.Registration.ID, "venmo", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), profile("second@example.com"), 1, 5000)
	assert.ErrorIs(t, err, ErrCourseFull)
}

func TestPendingDoesNotConsumeCapacity(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 1))

	_, err := svc.Register(context.Background(), profile("first@example.com"), 1, 5000)
	require.NoError(t, err)

	// The pending registration holds nothing; a second student still fits.
	second, err := svc.Register(context.Background(), profile("second@example.com"), 1, 5000)
	require.NoError(t, err)

	// Only one of them can complete.
	_, err = svc.ConfirmPayment(context.Background(), second.Registration.ID, "zelle", "")
	require.NoError(t, err)

	capacity, completed, err := svc.CheckCapacity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, capacity)
	assert.Equal(t, 1, completed)
}

func TestConfirmPaymentRechecksCapacity(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 1))

	first, err := svc.Register(context.Background(), profile("first@example.com"), 1, 5000)
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), profile("second@example.com"), 1, 5000)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), first.Registration.ID, "venmo", "")
	require.NoError(t, err)

	// The spot disappeared between create and confirm.
	_, err = svc.ConfirmPayment(context.Background(), second.Registration.ID, "venmo", "")
	assert.ErrorIs(t, err, ErrCourseFull)
}

func TestConfirmPaymentEmailFailureIsSoft(t *testing.T) {
	svc, _, _, m := newRegistrationFixture(openCourse(1, 10))
	m.fail = errors.New("sendgrid is down")

	result, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(context.Background(), result.Registration.ID, "venmo", "")

	require.NoError(t, err, "email failure must not fail the confirmation")
	assert.Equal(t, domain.PaymentStatusCompleted, confirmed.Registration.PaymentStatus)
	assert.False(t, confirmed.EmailSent)
	assert.Contains(t, confirmed.EmailError, "sendgrid is down")
}

func TestConfirmPaymentSendsEmail(t *testing.T) {
	svc, _, _, m := newRegistrationFixture(openCourse(1, 10))

	result, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(context.Background(), result.Registration.ID, "venmo", "paid in full")
	require.NoError(t, err)

	assert.True(t, confirmed.EmailSent)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "alex@example.com", m.sent[0].ToEmail)
}

func TestCancelFreesCapacity(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 1))

	first, err := svc.Register(context.Background(), profile("first@example.com"), 1, 5000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), first.Registration.ID, "venmo", "")
	require.NoError(t, err)

	canceled, err := svc.Cancel(context.Background(), first.Registration.ID, "schedule conflict", "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCanceled, canceled.Registration.PaymentStatus)
	assert.Equal(t, "schedule conflict", canceled.Registration.CancellationReason)

	second, err := svc.Register(context.Background(), profile("second@example.com"), 1, 5000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), second.Registration.ID, "venmo", "")
	require.NoError(t, err)
}

func TestUncancelRestoresPendingAndReportsCapacity(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 1))

	first, err := svc.Register(context.Background(), profile("first@example.com"), 1, 5000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), first.Registration.ID, "venmo", "")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), first.Registration.ID, "", "admin@example.com")
	require.NoError(t, err)

	restored, err := svc.Uncancel(context.Background(), first.Registration.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPending, restored.Registration.PaymentStatus)
	assert.Nil(t, restored.Registration.CanceledAt)
	assert.True(t, restored.CapacityAvailable)
}

func TestMarkPaymentFailedOnlyFromPending(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 10))

	result, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	failed, err := svc.MarkPaymentFailed(context.Background(), result.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, failed.PaymentStatus)

	_, err = svc.MarkPaymentFailed(context.Background(), result.Registration.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func dropInCourse(id uint, capacity int, start, end string, practiceDate time.Time) domain.Course {
	return domain.Course{
		ID:                  id,
		Name:                "Drop-in",
		CourseType:          domain.CourseTypeDropIn,
		RequiredStudentType: domain.StudentTypeAny,
		IsActive:            true,
		Slots: []domain.Slot{
			{ID: id * 10, CourseID: id, Capacity: capacity, StartTime: start, EndTime: end, PracticeDate: &practiceDate},
		},
	}
}

func TestRegisterBundleHappyPath(t *testing.T) {
	day := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ := newRegistrationFixture(
		dropInCourse(1, 10, "19:00", "20:00", day),
		dropInCourse(2, 10, "19:00", "20:00", day.AddDate(0, 0, 7)),
		dropInCourse(3, 10, "19:00", "20:00", day.AddDate(0, 0, -7)),
	)

	result, err := svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1, 2, 3}, 5000)

	require.NoError(t, err)
	require.Len(t, result.Registrations, 3)

	var total int64
	for _, reg := range result.Registrations {
		assert.Equal(t, domain.PaymentStatusPending, reg.PaymentStatus)
		assert.Equal(t, domain.RegistrationTypeDropInBundle, reg.RegistrationType)
		total += reg.PaymentAmountCents
	}
	assert.Equal(t, int64(5000), total, "split amounts preserve the bundle total")
}

func TestRegisterBundleRejectsMixedLevels(t *testing.T) {
	day := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ := newRegistrationFixture(
		dropInCourse(1, 10, "19:00", "20:00", day),
		dropInCourse(2, 10, "20:00", "21:00", day),
	)

	_, err := svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1, 2}, 4000)

	var bundleErr *BundleRejectionError
	require.ErrorAs(t, err, &bundleErr)
	assert.Equal(t, BundleReasonMixedLevels, bundleErr.Reason)
}

func TestRegisterBundleRejectsGatedWeek(t *testing.T) {
	gated := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC) // past the configured cutoff
	svc, _, _, _ := newRegistrationFixture(dropInCourse(1, 10, "19:00", "20:00", gated))

	_, err := svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1}, 2000)

	var bundleErr *BundleRejectionError
	require.ErrorAs(t, err, &bundleErr)
	assert.Equal(t, BundleReasonWeekGated, bundleErr.Reason)
	assert.Equal(t, uint(1), bundleErr.CourseID)
}

func TestRegisterBundleAllOrNothingOnFullCourse(t *testing.T) {
	day := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	svc, regRepo, _, _ := newRegistrationFixture(
		dropInCourse(1, 10, "19:00", "20:00", day),
		dropInCourse(2, 1, "19:00", "20:00", day.AddDate(0, 0, 7)),
	)

	// Fill course 2.
	taken, err := svc.Register(context.Background(), profile("other@example.com"), 2, 2000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), taken.Registration.ID, "venmo", "")
	require.NoError(t, err)

	before := len(regRepo.registrations)
	_, err = svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1, 2}, 4000)

	var bundleErr *BundleRejectionError
	require.ErrorAs(t, err, &bundleErr)
	assert.Equal(t, BundleReasonCourseFull, bundleErr.Reason)
	assert.Equal(t, uint(2), bundleErr.CourseID)
	assert.Len(t, regRepo.registrations, before, "no partial commit on bundle rejection")
}

func TestRegisterBundleSizeLimits(t *testing.T) {
	day := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ := newRegistrationFixture(
		dropInCourse(1, 10, "19:00", "20:00", day),
		dropInCourse(2, 10, "19:00", "20:00", day),
		dropInCourse(3, 10, "19:00", "20:00", day),
		dropInCourse(4, 10, "19:00", "20:00", day),
	)

	_, err := svc.RegisterBundle(context.Background(), profile("alex@example.com"), nil, 0)
	assert.ErrorIs(t, err, ErrEmptyBundle)

	_, err = svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1, 2, 3, 4}, 8000)
	assert.ErrorIs(t, err, ErrBundleTooLarge)

	// Duplicated IDs collapse before the size check.
	result, err := svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1, 1, 2, 2, 3, 3}, 6000)
	require.NoError(t, err)
	assert.Len(t, result.Registrations, 3)
}

func TestRegisterComboRequiresCrewMember(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture(openCourse(1, 10))

	_, err := svc.RegisterCrewHouseCombo(context.Background(), profile("alex@example.com"), []uint{1}, 9000)

	var accessErr *AccessDeniedError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, domain.StudentTypeCrewMember, accessErr.RequiredType)
}

func TestRegisterComboIncludesCrewPractices(t *testing.T) {
	crewPractice := domain.Course{
		ID:                  5,
		Name:                "Crew Practice",
		CourseType:          domain.CourseTypeCrewPractice,
		RequiredStudentType: domain.StudentTypeCrewMember,
		IsActive:            true,
		Slots:               []domain.Slot{{ID: 50, CourseID: 5, Capacity: 30, StartTime: "21:00", EndTime: "22:00"}},
	}
	courseRepo := newFakeCourseRepo(openCourse(1, 10), crewPractice)
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)
	waitlistRepo := newFakeWaitlistRepo(courseRepo)
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, waitlistRepo, &fakeMailer{}, testConfig())

	crew, err := studentRepo.UpsertByEmail(context.Background(), profile("crew@example.com"))
	require.NoError(t, err)
	_, err = studentRepo.UpdateType(context.Background(), crew.ID, domain.StudentTypeCrewMember, false)
	require.NoError(t, err)

	result, err := svc.RegisterCrewHouseCombo(context.Background(), profile("crew@example.com"), []uint{1}, 9000)
	require.NoError(t, err)

	require.Len(t, result.HouseRegistrations, 1)
	require.Len(t, result.CrewRegistrations, 1)
	assert.Equal(t, domain.RegistrationTypeCrewHouseCombo, result.HouseRegistrations[0].RegistrationType)
	assert.Equal(t, domain.RegistrationTypeCrewUnlimited, result.CrewRegistrations[0].RegistrationType)
	assert.Equal(t, int64(9000), result.HouseRegistrations[0].PaymentAmountCents)
}

func TestRegisterFromWaitlistExpiredToken(t *testing.T) {
	svc, _, waitlistRepo, _ := newRegistrationFixture(openCourse(1, 10))

	entry, err := waitlistRepo.JoinOrReactivate(context.Background(), 1, 1)
	require.NoError(t, err)
	expired := time.Now().Add(-time.Hour)
	_, err = waitlistRepo.MarkNotified(context.Background(), entry.ID, "tok-123", expired.Add(-48*time.Hour), expired)
	require.NoError(t, err)

	_, err = svc.RegisterFromWaitlist(context.Background(), "tok-123", 5000)
	assert.ErrorIs(t, err, ErrNotificationExpired)
}

func TestRegisterFromWaitlistMarksOrigin(t *testing.T) {
	courseRepo := newFakeCourseRepo(openCourse(1, 10))
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)
	waitlistRepo := newFakeWaitlistRepo(courseRepo)
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, waitlistRepo, &fakeMailer{}, testConfig())

	student, err := studentRepo.UpsertByEmail(context.Background(), profile("waiting@example.com"))
	require.NoError(t, err)
	entry, err := waitlistRepo.JoinOrReactivate(context.Background(), student.ID, 1)
	require.NoError(t, err)
	future := time.Now().Add(48 * time.Hour)
	_, err = waitlistRepo.MarkNotified(context.Background(), entry.ID, "tok-456", time.Now(), future)
	require.NoError(t, err)

	result, err := svc.RegisterFromWaitlist(context.Background(), "tok-456", 5000)
	require.NoError(t, err)

	assert.True(t, result.Registration.CreatedFromWaitlist)
	assert.Equal(t, student.ID, result.Registration.StudentID)
}

func TestEditUpdatesAmountAndContact(t *testing.T) {
	courseRepo := newFakeCourseRepo(openCourse(1, 10))
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, newFakeWaitlistRepo(courseRepo), &fakeMailer{}, testConfig())

	result, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	amount := int64(4500)
	phone := "555-0202"
	edited, err := svc.Edit(context.Background(), result.Registration.ID, EditFields{
		AmountCents: &amount,
		Phone:       &phone,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4500), edited.PaymentAmountCents)
	student, err := studentRepo.FindByID(context.Background(), result.Registration.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "555-0202", student.Phone)
}

func TestRegisterKeepsProfileComplete(t *testing.T) {
	courseRepo := newFakeCourseRepo(openCourse(1, 10))
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, newFakeWaitlistRepo(courseRepo), &fakeMailer{}, testConfig())

	created, err := NewStudentService(studentRepo).Upsert(context.Background(), profile("alex@example.com"))
	require.NoError(t, err)
	require.True(t, created.ProfileComplete)

	_, err = svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)

	after, err := studentRepo.FindByEmail(context.Background(), "alex@example.com")
	require.NoError(t, err)
	assert.True(t, after.ProfileComplete, "registering must not reset a complete profile")
}

func TestRegisterBundleRejectsMalformedCutoff(t *testing.T) {
	day := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	courseRepo := newFakeCourseRepo(dropInCourse(1, 10, "19:00", "20:00", day))
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)

	conf := testConfig()
	conf.Registration.DropInCutoffDate = "not-a-date"
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, newFakeWaitlistRepo(courseRepo), &fakeMailer{}, conf)

	_, err := svc.RegisterBundle(context.Background(), profile("alex@example.com"), []uint{1}, 5000)

	require.Error(t, err, "an unparseable cutoff must not silently disable the final-week gate")
	assert.Empty(t, regRepo.registrations)
}

func TestListForStudent(t *testing.T) {
	courseRepo := newFakeCourseRepo(openCourse(1, 10), openCourse(2, 10))
	studentRepo := newFakeStudentRepo()
	regRepo := newFakeRegistrationRepo(courseRepo)
	svc := NewRegistrationService(regRepo, courseRepo, studentRepo, newFakeWaitlistRepo(courseRepo), &fakeMailer{}, testConfig())

	first, err := svc.Register(context.Background(), profile("alex@example.com"), 1, 5000)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), first.Registration.ID, "venmo", "")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), profile("alex@example.com"), 2, 5000)
	require.NoError(t, err)

	regs, err := svc.ListForStudent(context.Background(), first.Registration.StudentID)
	require.NoError(t, err)
	assert.Len(t, regs, 2)

	_, err = svc.ListForStudent(context.Background(), 999)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}
