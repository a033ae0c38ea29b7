package http

import (
	"context"
	"errors"
	"time"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/input"
	"virtual-patient/pkg/metrics"
	"virtual-patient/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker func(ctx context.Context) error

// HTTPHandler struct - Primary/Driving adapter for HTTP
type HTTPHandler struct {
	srv       input.PatientChatService
	health    HealthChecker
	validator validator.Validator
}

// New func - Creates new HTTP handler. health may be nil when there is nothing to probe.
func New(srv input.PatientChatService, health HealthChecker) *HTTPHandler {
	return &HTTPHandler{
		srv:       srv,
		health:    health,
		validator: validator.New(),
	}
}

// Root func
// @Summary Liveness banner
// @Tags System
// @Produce plain
// @Success 200 {string} string "Virtual Patient API is Running"
// @Router / [get]
func (hdl *HTTPHandler) Root(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Virtual Patient API is Running")
}

// HealthCheck func
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	if hdl.health != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := hdl.health(ctx); err != nil {
			logrus.Errorln(err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unavailable"})
		}
	}
	return c.Status(fiber.StatusOK).JSON(HealthResponse{Status: "ok"})
}

// Chat godoc
// @Summary Talk to the virtual patient
// @Description Sends the doctor's message and returns the patient's messages with base64 MP3 audio
// @Tags Patient
// @Accept application/json
// @Produce json
// @param ChatRequest body ChatRequest true "Doctor message"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chat [post]
func (hdl *HTTPHandler) Chat(c *fiber.Ctx) error {
	var request ChatRequest
	if err := c.BodyParser(&request); err != nil {
		logrus.Errorln(err)
		metrics.ObserveRequest("chat", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: InvalidRequestBody})
	}
	if err := hdl.validator.ValidateStruct(request); err != nil {
		metrics.ObserveRequest("chat", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	// Convert HTTP request to domain request
	domainReq := domain.ChatRequest{
		Message:   request.Message,
		SessionID: request.SessionID,
	}
	response, err := hdl.srv.Chat(c.UserContext(), domainReq)
	if err != nil {
		return hdl.writeError(c, "chat", err)
	}

	metrics.ObserveRequest("chat", "ok")
	return c.Status(fiber.StatusOK).JSON(newChatResponse(response))
}

// Palpation godoc
// @Summary Palpate an abdominal region
// @Description Returns what the doctor feels and how the patient reacts
// @Tags Patient
// @Accept application/json
// @Produce json
// @param PalpationRequest body PalpationRequest true "Region to palpate"
// @Success 200 {object} PalpationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /palpation [post]
func (hdl *HTTPHandler) Palpation(c *fiber.Ctx) error {
	var request PalpationRequest
	if err := c.BodyParser(&request); err != nil {
		logrus.Errorln(err)
		metrics.ObserveRequest("palpation", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: InvalidRequestBody})
	}
	if err := hdl.validator.ValidateStruct(request); err != nil {
		metrics.ObserveRequest("palpation", "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	response, err := hdl.srv.Palpate(c.UserContext(), domain.PalpationRequest{
		Region:    request.Region,
		SessionID: request.SessionID,
	})
	if err != nil {
		return hdl.writeError(c, "palpation", err)
	}

	metrics.ObserveRequest("palpation", "ok")
	return c.Status(fiber.StatusOK).JSON(PalpationResponse{
		DoctorFinding:   response.Finding.DoctorFinding,
		PatientResponse: response.Finding.PatientResponse,
	})
}

// writeError maps use case errors to status codes. Unknown errors are not echoed to the client.
func (hdl *HTTPHandler) writeError(c *fiber.Ctx, endpoint string, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrEmptyRegion),
		errors.Is(err, domain.ErrMissingCredentials):
		logrus.Warnf("Rejected %s request: %v", endpoint, err)
		metrics.ObserveRequest(endpoint, "bad_request")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	default:
		logrus.Errorf("Failed to handle %s request: %v", endpoint, err)
		metrics.ObserveRequest(endpoint, "error")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: InternalServerError})
	}
}

// RegisterRoutes mounts the patient endpoints on router
func (hdl *HTTPHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", hdl.Root)
	router.Get("/health", hdl.HealthCheck)
	router.Post("/chat", hdl.Chat)
	router.Post("/palpation", hdl.Palpation)
}
