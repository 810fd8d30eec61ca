package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"course-marketplace-service/internal/apperr"
	"course-marketplace-service/internal/event"
	"course-marketplace-service/internal/models"
	"course-marketplace-service/internal/payment"
)

type PaymentService struct {
	gateway     payment.Gateway
	courses     CourseStore
	enrollments EnrollmentStore
	enrolls     *EnrollmentService
	publisher   event.Publisher
	keyID       string
}

func NewPaymentService(
	gateway payment.Gateway,
	courses CourseStore,
	enrollments EnrollmentStore,
	enrolls *EnrollmentService,
	publisher event.Publisher,
	keyID string,
) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		courses:     courses,
		enrollments: enrollments,
		enrolls:     enrolls,
		publisher:   publisher,
		keyID:       keyID,
	}
}

// CheckoutOrder is the order as returned to the client, with the public key
// id the checkout widget needs.
type CheckoutOrder struct {
	Order *payment.Order `json:"order"`
	KeyID string         `json:"keyId"`
}

// CreateOrder reserves a checkout for a course. Reservations for courses the
// caller already owns are refused before the gateway is touched.
func (s *PaymentService) CreateOrder(ctx context.Context, actor Actor, courseID string) (*CheckoutOrder, error) {
	id, err := bson.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, apperr.Validation("Invalid course ID format")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, apperr.Internal("failed to get course", err)
	}

	if _, err := s.enrollments.FindByStudentAndCourse(ctx, actor.UserID, id); err == nil {
		return nil, apperr.Conflict("Already enrolled in this course")
	} else if err != mongo.ErrNoDocuments {
		return nil, apperr.Internal("failed to check enrollment", err)
	}

	order, err := s.gateway.CreateOrder(ctx, payment.CreateOrderInput{
		Amount:      course.Price,
		CourseID:    courseID,
		StudentID:   actor.UserID,
		CourseTitle: course.Title,
	})
	if err != nil {
		return nil, apperr.Internal("failed to create payment order", err)
	}

	return &CheckoutOrder{Order: order, KeyID: s.keyID}, nil
}

// GetOrder returns a reserved order to the student who opened it.
func (s *PaymentService) GetOrder(ctx context.Context, actor Actor, orderID string) (*payment.Order, error) {
	order, err := s.gateway.GetOrder(ctx, orderID)
	if err == payment.ErrOrderNotFound {
		return nil, apperr.NotFound("Order not found or expired")
	}
	if err != nil {
		return nil, apperr.Internal("failed to get order", err)
	}

	if !IsOwnerOrAdmin(actor.UserID, order.Notes.StudentID, actor.Role) {
		return nil, apperr.Authorization("Not authorized to view this order")
	}
	return order, nil
}

// Verify settles a confirmation. A verified payment enrolls the student
// atomically against the enrollment uniqueness index; the order is consumed
// only after the enrollment lands, so a failed enrollment leaves it
// replayable.
func (s *PaymentService) Verify(ctx context.Context, actor Actor, req *models.VerifyPaymentRequest) (*models.Enrollment, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, apperr.Validation("Order ID, payment ID and signature are required")
	}
	if req.CourseID == "" {
		return nil, apperr.Validation("Course ID is required")
	}

	result, err := s.gateway.VerifyPayment(ctx, payment.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		CourseID:  req.CourseID,
		Amount:    req.Amount,
	})
	if err != nil {
		return nil, apperr.Internal("payment verification errored", err)
	}

	if !result.Success {
		if err := s.publisher.PublishPaymentEvent(&event.PaymentEvent{
			EventType: event.EventTypePaymentFailed,
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			StudentID: actor.UserID,
			CourseID:  req.CourseID,
			Amount:    req.Amount,
			Reason:    result.Reason,
			Timestamp: time.Now().Unix(),
		}); err != nil {
			log.Printf("Failed to publish payment failure event: %v", err)
		}
		return nil, apperr.PaymentVerification(result.Reason)
	}

	enrollment, err := s.enrolls.Enroll(ctx, actor, req.CourseID, req.Amount, &PaymentConfirmation{
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
	})
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Consume(ctx, req.OrderID); err != nil {
		log.Printf("Failed to consume order %s: %v", req.OrderID, err)
	}

	if err := s.publisher.PublishPaymentEvent(&event.PaymentEvent{
		EventType: event.EventTypePaymentVerified,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		StudentID: actor.UserID,
		CourseID:  req.CourseID,
		Amount:    req.Amount,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		log.Printf("Failed to publish payment event: %v", err)
	}

	return enrollment, nil
}
