package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/middleware"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/services"
)

type CertificateHandler struct {
	certificateService *services.CertificateService
}

func NewCertificateHandler(certificateService *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
	}
}

func (h *CertificateHandler) RegisterRoutes(app *fiber.App) {
	certificates := app.Group("/api/certificates", middleware.RequireAuth())

	certificates.Post("/generate", h.GenerateCertificate)
	certificates.Get("/my-certificates", h.MyCertificates)
	certificates.Get("/:id/download", h.DownloadCertificate)
}

func (h *CertificateHandler) GenerateCertificate(c fiber.Ctx) error {
	var req models.GenerateCertificateRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CourseID == "" || req.QuizID == "" {
		return badRequest(c, "Course ID and quiz ID are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	certificate, err := h.certificateService.Generate(ctx, actorFromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}

	return created(c, "Certificate issued successfully", fiber.Map{
		"certificate":    certificate,
		"certificateUrl": certificate.ArtifactURL,
	})
}

func (h *CertificateHandler) MyCertificates(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	certificates, err := h.certificateService.MyCertificates(ctx, actorFromCtx(c))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"certificates": certificates,
		"count":        len(certificates),
	})
}

func (h *CertificateHandler) DownloadCertificate(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	certificate, err := h.certificateService.Get(ctx, actorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"certificate":    certificate,
		"certificateUrl": certificate.ArtifactURL,
	})
}
