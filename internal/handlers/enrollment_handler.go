package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/middleware"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/services"
)

type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

func (h *EnrollmentHandler) RegisterRoutes(app *fiber.App) {
	enrollments := app.Group("/api/enrollments", middleware.RequireAuth())

	enrollments.Post("/", h.Enroll)
	enrollments.Get("/my-enrollments", h.MyEnrollments)
	enrollments.Get("/check/:courseId", h.CheckEnrollment)
	enrollments.Get("/:id", h.GetEnrollment)
	enrollments.Put("/:id/progress", h.UpdateProgress)
}

// Enroll handles direct enrollment, which only instructors and admins may
// use; students enroll through payment verification.
func (h *EnrollmentHandler) Enroll(c fiber.Ctx) error {
	var req models.EnrollRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CourseID == "" {
		return badRequest(c, "Course ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	enrollment, err := h.enrollmentService.Enroll(ctx, actorFromCtx(c), req.CourseID, req.Amount, nil)
	if err != nil {
		return fail(c, err)
	}

	return created(c, "Enrolled successfully", fiber.Map{
		"enrollment": enrollment,
	})
}

func (h *EnrollmentHandler) MyEnrollments(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	enrollments, err := h.enrollmentService.MyEnrollments(ctx, actorFromCtx(c))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"enrollments": enrollments,
		"count":       len(enrollments),
	})
}

func (h *EnrollmentHandler) CheckEnrollment(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := h.enrollmentService.CheckEnrollment(ctx, actorFromCtx(c), c.Params("courseId"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"enrolled":   status.Enrolled,
		"enrollment": status.Enrollment,
	})
}

func (h *EnrollmentHandler) GetEnrollment(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	enrollment, err := h.enrollmentService.Get(ctx, actorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"enrollment": enrollment,
	})
}

func (h *EnrollmentHandler) UpdateProgress(c fiber.Ctx) error {
	var req models.UpdateProgressRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	enrollment, err := h.enrollmentService.UpdateProgress(ctx, actorFromCtx(c), c.Params("id"), req.Progress)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"enrollment": enrollment,
	})
}
