package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrInvalidSeedPayload indicates the payload failed schema validation.
	ErrInvalidSeedPayload = errors.New("invalid seed payload")
)

//go:embed schemas/seed_payload.schema.json
var seedPayloadSchema string

const seedSchemaURL = "seed_payload.schema.json"

// SeedService imports catalog content in bulk.
type SeedService interface {
	// Seed checks the token before importing.
	Seed(ctx context.Context, token string, raw []byte) (dto.SeedResult, error)
	// Import validates and upserts a payload without a token check, for startup seeding.
	Import(ctx context.Context, raw []byte) (dto.SeedResult, error)
}

type seedService struct {
	courses   repository.CourseRepository
	questions repository.MCQQuestionRepository
	tasks     repository.TaskRepository
	schema    *jsonschema.Schema
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(courses repository.CourseRepository, questions repository.MCQQuestionRepository, tasks repository.TaskRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) (SeedService, error) {
	schema, err := jsonschema.CompileString(seedSchemaURL, seedPayloadSchema)
	if err != nil {
		return nil, fmt.Errorf("compile seed schema: %w", err)
	}

	return &seedService{
		courses:   courses,
		questions: questions,
		tasks:     tasks,
		schema:    schema,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}, nil
}

func (s *seedService) Seed(ctx context.Context, token string, raw []byte) (dto.SeedResult, error) {
	if !s.enabled {
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResult{}, ErrSeedUnauthorized
	}
	return s.Import(ctx, raw)
}

func (s *seedService) Import(ctx context.Context, raw []byte) (dto.SeedResult, error) {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return dto.SeedResult{}, fmt.Errorf("%w: %v", ErrInvalidSeedPayload, err)
	}
	if err := s.schema.Validate(document); err != nil {
		return dto.SeedResult{}, fmt.Errorf("%w: %v", ErrInvalidSeedPayload, err)
	}

	var payload dto.SeedPayload
	decoder := json.NewDecoder(bytes.NewReader(raw))
	if err := decoder.Decode(&payload); err != nil {
		return dto.SeedResult{}, fmt.Errorf("%w: %v", ErrInvalidSeedPayload, err)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SeedResult{}, err
	}

	var result dto.SeedResult
	var err error

	courses := make([]models.Course, 0, len(payload.Courses))
	for _, item := range payload.Courses {
		courses = append(courses, models.Course{
			ID:          strings.TrimSpace(item.ID),
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Category:    strings.TrimSpace(item.Category),
		})
	}
	if result.Courses, err = s.courses.UpsertBatch(ctx, courses); err != nil {
		return dto.SeedResult{}, fmt.Errorf("seed courses: %w", err)
	}

	questions := make([]models.MCQQuestion, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		questions = append(questions, newQuestionModel(item))
	}
	if result.Questions, err = s.questions.UpsertBatch(ctx, questions); err != nil {
		return dto.SeedResult{}, fmt.Errorf("seed questions: %w", err)
	}

	tasks := make([]models.DailyTask, 0, len(payload.Tasks))
	for _, item := range payload.Tasks {
		tasks = append(tasks, newTaskModel(item))
	}
	if result.Tasks, err = s.tasks.UpsertBatch(ctx, tasks); err != nil {
		return dto.SeedResult{}, fmt.Errorf("seed tasks: %w", err)
	}

	s.logger.Info().
		Int64("courses", result.Courses).
		Int64("questions", result.Questions).
		Int64("tasks", result.Tasks).
		Msg("catalog seeded")

	return result, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
