package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/middleware"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/services"
)

type CourseHandler struct {
	courseService *services.CourseService
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
	}
}

func (h *CourseHandler) RegisterRoutes(app *fiber.App) {
	courses := app.Group("/api/courses")

	courses.Get("/", h.ListCourses)
	courses.Get("/:id", h.GetCourse)
	courses.Post("/", h.CreateCourse, middleware.RequireAuth(), middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin))
	courses.Put("/:id", h.UpdateCourse, middleware.RequireAuth())
	courses.Delete("/:id", h.DeleteCourse, middleware.RequireAuth())
	courses.Post("/:id/reviews", h.AddReview, middleware.RequireAuth())
}

func (h *CourseHandler) ListCourses(c fiber.Ctx) error {
	query := models.CourseQuery{
		Category: models.CourseCategory(c.Query("category")),
		Level:    models.CourseLevel(c.Query("level")),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	courses, err := h.courseService.List(ctx, query)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"courses": courses,
		"count":   len(courses),
	})
}

func (h *CourseHandler) GetCourse(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	course, err := h.courseService.Get(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"course": course,
	})
}

func (h *CourseHandler) CreateCourse(c fiber.Ctx) error {
	var req models.CreateCourseRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	course, err := h.courseService.Create(ctx, actorFromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}

	return created(c, "Course created successfully", fiber.Map{
		"course": course,
	})
}

func (h *CourseHandler) UpdateCourse(c fiber.Ctx) error {
	var req models.UpdateCourseRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	course, err := h.courseService.Update(ctx, actorFromCtx(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"course": course,
	})
}

func (h *CourseHandler) DeleteCourse(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.courseService.Delete(ctx, actorFromCtx(c), c.Params("id")); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Course deleted successfully",
	})
}

func (h *CourseHandler) AddReview(c fiber.Ctx) error {
	var req models.AddReviewRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.courseService.AddReview(ctx, actorFromCtx(c), c.Params("id"), &req); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review added successfully",
	})
}
