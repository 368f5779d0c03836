package service

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository"
)

var ErrCourseNotFound = repository.ErrCourseNotFound

type CatalogCourseRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Course, error)
	FindActive(ctx context.Context) ([]domain.Course, error)
	Create(ctx context.Context, course domain.Course) (domain.Course, error)
}

type CatalogRegistrationRepository interface {
	CheckCapacity(ctx context.Context, courseID uint) (int, int, error)
}

// CatalogService is the read side: course structure with live availability.
// Course/slot/pricing rows change rarely (admin edits), so they are cached
// briefly; completed-registration counts are always read live.
type CatalogService struct {
	courseRepo CatalogCourseRepository
	regRepo    CatalogRegistrationRepository
	cache      *cache.Cache
}

func NewCatalogService(courseRepo CatalogCourseRepository, regRepo CatalogRegistrationRepository) *CatalogService {
	return &CatalogService{
		courseRepo: courseRepo,
		regRepo:    regRepo,
		cache:      cache.New(2*time.Minute, 10*time.Minute),
	}
}

func (s *CatalogService) GetCourseWithAvailability(ctx context.Context, courseID uint) (domain.CourseAvailability, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return domain.CourseAvailability{}, err
	}

	_, completed, err := s.regRepo.CheckCapacity(ctx, courseID)
	if err != nil {
		return domain.CourseAvailability{}, fmt.Errorf("s.regRepo.CheckCapacity -> %w", err)
	}

	return domain.NewCourseAvailability(course, completed), nil
}

// ListEligibleCourses returns the active courses visible to the given
// student type, each with live availability. General students never see
// crew-only courses.
func (s *CatalogService) ListEligibleCourses(ctx context.Context, studentType domain.StudentType) ([]domain.CourseAvailability, error) {
	courses, err := s.listActive(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]domain.CourseAvailability, 0, len(courses))
	for _, course := range courses {
		if !domain.CourseVisibleTo(course, studentType) {
			continue
		}

		_, completed, err := s.regRepo.CheckCapacity(ctx, course.ID)
		if err != nil {
			return nil, fmt.Errorf("s.regRepo.CheckCapacity -> %w", err)
		}

		eligible = append(eligible, domain.NewCourseAvailability(course, completed))
	}

	return eligible, nil
}

// CreateCourse inserts a course with its slots and pricing, then drops the
// cached listings so the next read sees it.
func (s *CatalogService) CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	created, err := s.courseRepo.Create(ctx, course)
	if err != nil {
		return domain.Course{}, fmt.Errorf("s.courseRepo.Create -> %w", err)
	}

	s.cache.Flush()

	return created, nil
}

func (s *CatalogService) getCourse(ctx context.Context, courseID uint) (domain.Course, error) {
	key := fmt.Sprintf("course:%v", courseID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(domain.Course), nil
	}

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return domain.Course{}, fmt.Errorf("s.courseRepo.FindByID -> %w", err)
	}

	s.cache.SetDefault(key, course)

	return course, nil
}

func (s *CatalogService) listActive(ctx context.Context) ([]domain.Course, error) {
	const key = "courses:active"
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.Course), nil
	}

	courses, err := s.courseRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.courseRepo.FindActive -> %w", err)
	}

	s.cache.SetDefault(key, courses)

	return courses, nil
}
