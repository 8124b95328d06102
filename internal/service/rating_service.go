package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/observability"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

// RatingService maintains the per-course aggregate of approved feedback.
type RatingService interface {
	Recompute(ctx context.Context, courseID string) (dto.CourseRatingResponse, error)
	Get(ctx context.Context, courseID string) (dto.CourseRatingResponse, error)
}

type ratingService struct {
	feedback repository.FeedbackRepository
	ratings  repository.CourseRatingRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewRatingService constructs the rating aggregator. The cache is optional.
func NewRatingService(feedback repository.FeedbackRepository, ratings repository.CourseRatingRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) RatingService {
	return &ratingService{
		feedback: feedback,
		ratings:  ratings,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "rating_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/coursehub-api/internal/service/rating"),
		now:      time.Now,
	}
}

func (s *ratingService) Recompute(ctx context.Context, courseID string) (dto.CourseRatingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "rating.recompute", trace.WithAttributes(attribute.String("rating.course_id", courseID)))
	defer span.End()

	counts, err := s.feedback.ApprovedRatingCounts(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load_failed")
		observability.RatingRecomputes().WithLabelValues("error").Inc()
		return dto.CourseRatingResponse{}, fmt.Errorf("load approved ratings: %w", err)
	}

	rating := aggregateRating(courseID, counts)
	defer s.invalidate(ctx, courseID)

	if rating.TotalReviews == 0 {
		if err := s.ratings.Delete(ctx, courseID); err != nil {
			span.RecordError(err)
			observability.RatingRecomputes().WithLabelValues("error").Inc()
			return dto.CourseRatingResponse{}, fmt.Errorf("clear course rating: %w", err)
		}
		observability.RatingRecomputes().WithLabelValues("cleared").Inc()
		return dto.NewCourseRatingResponse(rating), nil
	}

	rating.UpdatedAt = s.now()
	if err := s.ratings.Upsert(ctx, &rating); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store_failed")
		observability.RatingRecomputes().WithLabelValues("error").Inc()
		return dto.CourseRatingResponse{}, fmt.Errorf("store course rating: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("rating.average", rating.AverageRating),
		attribute.Int("rating.total", rating.TotalReviews),
	)
	observability.RatingRecomputes().WithLabelValues("updated").Inc()
	s.logger.Debug().Str("course_id", courseID).Float64("average", rating.AverageRating).Int("total", rating.TotalReviews).Msg("course rating recomputed")

	return dto.NewCourseRatingResponse(rating), nil
}

func (s *ratingService) Get(ctx context.Context, courseID string) (dto.CourseRatingResponse, error) {
	cacheKey := ratingCacheKey(courseID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CourseRatingResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read rating cache")
		}
	}

	rating, err := s.ratings.Get(ctx, courseID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseRatingResponse{}, err
		}
		rating = models.CourseRating{CourseID: courseID}
	}

	response := dto.NewCourseRatingResponse(rating)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store rating cache")
			}
		}
	}

	return response, nil
}

func (s *ratingService) invalidate(ctx context.Context, courseID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, ratingCacheKey(courseID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("failed to invalidate rating cache")
	}
}

func ratingCacheKey(courseID string) string {
	return fmt.Sprintf("rating:course:%s", courseID)
}

// aggregateRating folds per-star counts into a rating. Stars outside 1..5 are ignored.
func aggregateRating(courseID string, counts map[int]int) models.CourseRating {
	distribution := make(map[int]int, 5)
	total, sum := 0, 0
	for star := 1; star <= 5; star++ {
		count := counts[star]
		distribution[star] = count
		total += count
		sum += star * count
	}

	rating := models.CourseRating{CourseID: courseID, TotalReviews: total}
	rating.SetDistribution(distribution)
	if total > 0 {
		rating.AverageRating = roundToTenth(sum, total)
	}
	return rating
}

// roundToTenth returns sum/count rounded half-up to one decimal place using integer math.
func roundToTenth(sum, count int) float64 {
	tenths := (20*sum + count) / (2 * count)
	return float64(tenths) / 10
}
