package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/middleware"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/services"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

func (h *QuizHandler) RegisterRoutes(app *fiber.App) {
	quizzes := app.Group("/api/quizzes", middleware.RequireAuth())

	quizzes.Get("/course/:courseId", h.ListForCourse)
	quizzes.Get("/:id", h.GetQuiz)
	quizzes.Post("/:id/start", h.StartAttempt)
	quizzes.Post("/:id/submit", h.SubmitQuiz)
	quizzes.Get("/:id/results", h.GetResults)
	quizzes.Post("/", h.CreateQuiz, middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin))
	quizzes.Put("/:id", h.UpdateQuiz, middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin))
}

func (h *QuizHandler) ListForCourse(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	quizzes, err := h.quizService.ListForCourse(ctx, c.Params("courseId"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"quizzes": quizzes,
		"count":   len(quizzes),
	})
}

func (h *QuizHandler) GetQuiz(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	quiz, err := h.quizService.GetForTaking(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"quiz": quiz,
	})
}

func (h *QuizHandler) StartAttempt(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	window, err := h.quizService.StartAttempt(ctx, actorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"attempt": window,
	})
}

func (h *QuizHandler) SubmitQuiz(c fiber.Ctx) error {
	var req models.SubmitQuizRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := h.quizService.Submit(ctx, actorFromCtx(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"result": result,
	})
}

func (h *QuizHandler) GetResults(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := h.quizService.Results(ctx, actorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"quiz":     results.Quiz,
		"attempts": results.Attempts,
		"count":    len(results.Attempts),
	})
}

func (h *QuizHandler) CreateQuiz(c fiber.Ctx) error {
	var req models.CreateQuizRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	quiz, err := h.quizService.Create(ctx, actorFromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}

	return created(c, "Quiz created successfully", fiber.Map{
		"quiz": quiz,
	})
}

func (h *QuizHandler) UpdateQuiz(c fiber.Ctx) error {
	var req models.UpdateQuizRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	quiz, err := h.quizService.Update(ctx, actorFromCtx(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"quiz": quiz,
	})
}
