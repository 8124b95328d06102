package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/internal/utils"
)

// HeaderSeedToken carries the shared secret for catalog seeding.
const HeaderSeedToken = "X-Seed-Token"

// SeedHandler exposes the catalog import endpoint.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/", h.seed)
}

func (h *SeedHandler) seed(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// the request body is reused by fasthttp after the handler returns
	raw := append([]byte(nil), body...)
	result, err := h.service.Seed(requestContext(c), c.Get(HeaderSeedToken), raw)
	if err != nil {
		return handleError(c, h.logger, err, "seed catalog")
	}

	return utils.SendSuccess(c, "catalog seeded", result)
}
