package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

// CourseService exposes the read side of the course catalog.
type CourseService interface {
	List(ctx context.Context, category string) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id string) (dto.CourseResponse, error)
}

type courseService struct {
	courses repository.CourseRepository
	ratings RatingService
	logger  zerolog.Logger
}

// NewCourseService constructs the catalog service.
func NewCourseService(courses repository.CourseRepository, ratings RatingService, logger zerolog.Logger) CourseService {
	return &courseService{
		courses: courses,
		ratings: ratings,
		logger:  logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, category string) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}

	out := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		rating, err := s.ratings.Get(ctx, course.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("course_id", course.ID).Msg("failed to load course rating")
			rating = dto.CourseRatingResponse{CourseID: course.ID}
		}
		out = append(out, dto.NewCourseResponse(course, rating))
	}
	return out, nil
}

func (s *courseService) Get(ctx context.Context, id string) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	rating, err := s.ratings.Get(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course, rating), nil
}
