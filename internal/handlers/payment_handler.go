package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"course-marketplace-service/internal/middleware"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/services"
)

type PaymentHandler struct {
	paymentService    *services.PaymentService
	enrollmentService *services.EnrollmentService
}

func NewPaymentHandler(paymentService *services.PaymentService, enrollmentService *services.EnrollmentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService:    paymentService,
		enrollmentService: enrollmentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(app *fiber.App) {
	payments := app.Group("/api/payments", middleware.RequireAuth())

	payments.Post("/create-order", h.CreateOrder)
	payments.Post("/verify", h.VerifyPayment)
	payments.Get("/order/:orderId", h.GetOrder)
	payments.Get("/history", h.PaymentHistory)
}

func (h *PaymentHandler) CreateOrder(c fiber.Ctx) error {
	var req models.CreateOrderRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CourseID == "" {
		return badRequest(c, "Course ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checkout, err := h.paymentService.CreateOrder(ctx, actorFromCtx(c), req.CourseID)
	if err != nil {
		return fail(c, err)
	}

	return created(c, "Order created successfully", fiber.Map{
		"order": checkout.Order,
		"keyId": checkout.KeyID,
	})
}

func (h *PaymentHandler) VerifyPayment(c fiber.Ctx) error {
	var req models.VerifyPaymentRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	enrollment, err := h.paymentService.Verify(ctx, actorFromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"enrollment": enrollment,
	})
}

func (h *PaymentHandler) GetOrder(c fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return badRequest(c, "Order ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order, err := h.paymentService.GetOrder(ctx, actorFromCtx(c), orderID)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"order": order,
	})
}

func (h *PaymentHandler) PaymentHistory(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payments, err := h.enrollmentService.PaymentHistory(ctx, actorFromCtx(c))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, fiber.Map{
		"payments": payments,
		"count":    len(payments),
	})
}
