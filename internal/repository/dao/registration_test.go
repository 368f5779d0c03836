package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCourse(t *testing.T, db *gorm.DB, capacity int, active bool) Course {
	t.Helper()

	course, err := NewCourseDAO(db).Insert(context.Background(), Course{
		Name:                "Bachata Level 1",
		CourseType:          "multi-week",
		DurationWeeks:       8,
		RequiredStudentType: "any",
		IsActive:            active,
		Slots: []Slot{
			{
				DifficultyLevel: "Level 1",
				Capacity:        capacity,
				DayOfWeek:       "Wednesday",
				StartTime:       "19:00",
				EndTime:         "20:00",
				Location:        "Studio A",
				Pricing: []Pricing{
					{PricingType: "full_package", PriceCents: 16000},
				},
			},
		},
	})
	require.NoError(t, err)

	return course
}

func seedStudent(t *testing.T, db *gorm.DB, email string) Student {
	t.Helper()

	student := Student{
		Email:     email,
		FirstName: "Maya",
		Phone:     "555-0101",
	}
	require.NoError(t, db.Create(&student).Error)

	return student
}

func TestInsertPendingDedupes(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 2, true)
	student := seedStudent(t, db, "maya@example.com")

	first, deduped, err := d.InsertPending(ctx, Registration{
		StudentID:          student.ID,
		CourseID:           course.ID,
		PaymentAmountCents: 16000,
		RegistrationType:   "full_package",
	})
	require.NoError(t, err)
	assert.False(t, deduped)
	assert.Equal(t, "pending", first.PaymentStatus)

	second, deduped, err := d.InsertPending(ctx, Registration{
		StudentID:          student.ID,
		CourseID:           course.ID,
		PaymentAmountCents: 16000,
		RegistrationType:   "full_package",
	})
	require.NoError(t, err)
	assert.True(t, deduped)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&Registration{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInsertPendingRejectsCompleted(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 2, true)
	student := seedStudent(t, db, "maya@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, reg.ID, "venmo", "")
	require.NoError(t, err)

	_, _, err = d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestInsertPendingInactiveCourse(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 2, false)
	student := seedStudent(t, db, "maya@example.com")

	_, _, err := d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	assert.ErrorIs(t, err, ErrCourseInactive)
}

func TestPendingDoesNotConsumeCapacity(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 1, true)
	first := seedStudent(t, db, "first@example.com")
	second := seedStudent(t, db, "second@example.com")

	_, _, err := d.InsertPending(ctx, Registration{
		StudentID: first.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)

	_, _, err = d.InsertPending(ctx, Registration{
		StudentID: second.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	assert.NoError(t, err)
}

func TestCapacityGateRejectsWhenFull(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 1, true)
	first := seedStudent(t, db, "first@example.com")
	second := seedStudent(t, db, "second@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: first.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, reg.ID, "venmo", "")
	require.NoError(t, err)

	_, _, err = d.InsertPending(ctx, Registration{
		StudentID: second.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.ErrorIs(t, err, ErrCourseFull)

	var fullErr *CourseFullError
	require.ErrorAs(t, err, &fullErr)
	assert.Equal(t, course.ID, fullErr.CourseID)
}

func TestConfirmPaymentRechecksCapacity(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 1, true)
	first := seedStudent(t, db, "first@example.com")
	second := seedStudent(t, db, "second@example.com")

	regA, _, err := d.InsertPending(ctx, Registration{
		StudentID: first.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	regB, _, err := d.InsertPending(ctx, Registration{
		StudentID: second.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)

	confirmed, err := d.ConfirmPayment(ctx, regA.ID, "zelle", "ref 123")
	require.NoError(t, err)
	assert.Equal(t, "completed", confirmed.PaymentStatus)
	assert.Equal(t, "zelle", confirmed.PaymentMethod)

	_, err = d.ConfirmPayment(ctx, regB.ID, "venmo", "")
	assert.ErrorIs(t, err, ErrCourseFull)
}

func TestConfirmPaymentRemovesWaitlistEntry(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)
	w := NewWaitlistDAO(db)

	course := seedCourse(t, db, 2, true)
	student := seedStudent(t, db, "maya@example.com")
	other := seedStudent(t, db, "other@example.com")

	_, err := w.JoinOrReactivate(ctx, student.ID, course.ID)
	require.NoError(t, err)
	_, err = w.JoinOrReactivate(ctx, other.ID, course.ID)
	require.NoError(t, err)

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, reg.ID, "cash", "")
	require.NoError(t, err)

	entries, err := w.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, other.ID, entries[0].StudentID)
	assert.Equal(t, 1, entries[0].WaitlistPosition)
}

func TestCancelFreesCapacity(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 1, true)
	first := seedStudent(t, db, "first@example.com")
	second := seedStudent(t, db, "second@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: first.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, reg.ID, "venmo", "")
	require.NoError(t, err)

	canceled, err := d.Cancel(ctx, reg.ID, "schedule conflict", "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "canceled", canceled.PaymentStatus)
	assert.Equal(t, "admin@example.com", canceled.CanceledBy)
	require.NotNil(t, canceled.CanceledAt)

	regB, _, err := d.InsertPending(ctx, Registration{
		StudentID: second.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, regB.ID, "venmo", "")
	assert.NoError(t, err)
}

func TestUncancelRequiresReconfirmation(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 1, true)
	student := seedStudent(t, db, "maya@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, reg.ID, "venmo", "")
	require.NoError(t, err)
	_, err = d.Cancel(ctx, reg.ID, "", "admin@example.com")
	require.NoError(t, err)

	restored, err := d.Uncancel(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", restored.PaymentStatus)
	assert.Nil(t, restored.CanceledAt)
	assert.Empty(t, restored.CanceledBy)

	_, completed, err := d.CheckCapacity(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, completed)
}

func TestMarkPaymentFailedOnlyFromPending(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 2, true)
	student := seedStudent(t, db, "maya@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)

	failed, err := d.MarkPaymentFailed(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", failed.PaymentStatus)

	_, err = d.MarkPaymentFailed(ctx, reg.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestInsertPendingBatchAllOrNothing(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	open := seedCourse(t, db, 2, true)
	full := seedCourse(t, db, 1, true)
	student := seedStudent(t, db, "maya@example.com")
	blocker := seedStudent(t, db, "blocker@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: blocker.ID, CourseID: full.ID, RegistrationType: "full_package",
	})
	require.NoError(t, err)
	_, err = d.ConfirmPayment(ctx, reg.ID, "venmo", "")
	require.NoError(t, err)

	_, err = d.InsertPendingBatch(ctx, []Registration{
		{StudentID: student.ID, CourseID: open.ID, RegistrationType: "full_package"},
		{StudentID: student.ID, CourseID: full.ID, RegistrationType: "full_package"},
	})
	require.ErrorIs(t, err, ErrCourseFull)

	var count int64
	require.NoError(t, db.Model(&Registration{}).Where("student_id = ?", student.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestInsertPendingBatchHappyPath(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	a := seedCourse(t, db, 2, true)
	b := seedCourse(t, db, 2, true)
	student := seedStudent(t, db, "maya@example.com")

	created, err := d.InsertPendingBatch(ctx, []Registration{
		{StudentID: student.ID, CourseID: a.ID, PaymentAmountCents: 14000, RegistrationType: "bundle"},
		{StudentID: student.ID, CourseID: b.ID, PaymentAmountCents: 14000, RegistrationType: "bundle"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, reg := range created {
		assert.Equal(t, "pending", reg.PaymentStatus)
	}
}

func TestUpdateAmount(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	d := NewRegistrationDAO(db)

	course := seedCourse(t, db, 2, true)
	student := seedStudent(t, db, "maya@example.com")

	reg, _, err := d.InsertPending(ctx, Registration{
		StudentID: student.ID, CourseID: course.ID, PaymentAmountCents: 16000, RegistrationType: "full_package",
	})
	require.NoError(t, err)

	updated, err := d.UpdateAmount(ctx, reg.ID, 12000)
	require.NoError(t, err)
	assert.EqualValues(t, 12000, updated.PaymentAmountCents)
	assert.Equal(t, "pending", updated.PaymentStatus)

	_, err = d.UpdateAmount(ctx, 9999, 1000)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}
