package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

func TestListEligibleCoursesFiltersByStudentType(t *testing.T) {
	crewCourse := openCourse(2, 10)
	crewCourse.Name = "Crew Practice"
	crewCourse.RequiredStudentType = domain.StudentTypeCrewMember

	inactive := openCourse(3, 10)
	inactive.IsActive = false

	courseRepo := newFakeCourseRepo(openCourse(1, 10), crewCourse, inactive)
	regRepo := newFakeRegistrationRepo(courseRepo)
	svc := NewCatalogService(courseRepo, regRepo)

	general, err := svc.ListEligibleCourses(context.Background(), domain.StudentTypeGeneral)
	require.NoError(t, err)
	require.Len(t, general, 1)
	assert.Equal(t, uint(1), general[0].Course.ID)

	crew, err := svc.ListEligibleCourses(context.Background(), domain.StudentTypeCrewMember)
	require.NoError(t, err)
	assert.Len(t, crew, 2)
}

func TestGetCourseWithAvailabilityCountsCompletedOnly(t *testing.T) {
	courseRepo := newFakeCourseRepo(openCourse(1, 2))
	regRepo := newFakeRegistrationRepo(courseRepo)
	svc := NewCatalogService(courseRepo, regRepo)

	pending, _, err := regRepo.CreatePending(context.Background(), domain.Registration{StudentID: 1, CourseID: 1})
	require.NoError(t, err)
	completed, _, err := regRepo.CreatePending(context.Background(), domain.Registration{StudentID: 2, CourseID: 1})
	require.NoError(t, err)
	_, err = regRepo.ConfirmPayment(context.Background(), completed.ID, "venmo", "")
	require.NoError(t, err)

	availability, err := svc.GetCourseWithAvailability(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, availability.TotalCapacity)
	assert.Equal(t, 1, availability.CompletedCount, "pending registration %v reserves nothing", pending.ID)
	assert.Equal(t, 1, availability.AvailableSpots)
}

func TestGetCourseWithAvailabilityNotFound(t *testing.T) {
	courseRepo := newFakeCourseRepo()
	svc := NewCatalogService(courseRepo, newFakeRegistrationRepo(courseRepo))

	_, err := svc.GetCourseWithAvailability(context.Background(), 99)

	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCreateCourseVisibleInListings(t *testing.T) {
	courseRepo := newFakeCourseRepo()
	svc := NewCatalogService(courseRepo, newFakeRegistrationRepo(courseRepo))

	before, err := svc.ListEligibleCourses(context.Background(), domain.StudentTypeGeneral)
	require.NoError(t, err)
	require.Empty(t, before)

	created, err := svc.CreateCourse(context.Background(), domain.Course{
		Name:                "Bachata Level 1",
		CourseType:          domain.CourseTypeMultiWeek,
		RequiredStudentType: domain.StudentTypeAny,
		IsActive:            true,
		Slots: []domain.Slot{
			{Capacity: 12, StartTime: "19:00", EndTime: "20:00"},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	// The cached empty listing is dropped on create.
	after, err := svc.ListEligibleCourses(context.Background(), domain.StudentTypeGeneral)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, created.ID, after[0].Course.ID)
}
