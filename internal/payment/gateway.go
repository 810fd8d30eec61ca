package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// SentinelInvalidSignature always fails verification, in simulated mode too.
// Clients use it to exercise the failure path deterministically.
const SentinelInvalidSignature = "invalid"

// CreateOrderInput carries the checkout reservation parameters. Amount is in
// major units and is normalized to minor units on the order.
type CreateOrderInput struct {
	Amount      float64
	Currency    string
	CourseID    string
	StudentID   string
	CourseTitle string
}

// VerifyInput is the confirmation callback payload, razorpay-shaped.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	CourseID  string
	Amount    float64
}

// VerifyResult reports the verification outcome with a human-readable reason
// on failure.
type VerifyResult struct {
	Success bool
	Reason  string
}

// Gateway is the surface a real payment processor client would expose.
type Gateway interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	VerifyPayment(ctx context.Context, in VerifyInput) (*VerifyResult, error)
	Consume(ctx context.Context, orderID string) error
}

// SimulatedGateway mimics a payment processor without contacting one.
// Verification recomputes the HMAC-SHA256 signature a real gateway would
// send; in simulated mode any non-sentinel signature is accepted so demo
// clients need not compute HMACs.
type SimulatedGateway struct {
	keySecret string
	currency  string
	orderTTL  time.Duration
	simulated bool
	store     OrderStore
}

func NewSimulatedGateway(keySecret, currency string, orderTTL time.Duration, simulated bool, store OrderStore) *SimulatedGateway {
	return &SimulatedGateway{
		keySecret: keySecret,
		currency:  currency,
		orderTTL:  orderTTL,
		simulated: simulated,
		store:     store,
	}
}

// minorUnits converts a major-unit amount to minor units (paise for INR),
// rounding so prices like 499.95 do not lose a unit to float truncation.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *SimulatedGateway) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if in.Amount < 0 {
		return nil, fmt.Errorf("order amount cannot be negative")
	}

	currency := in.Currency
	if currency == "" {
		currency = g.currency
	}

	order := &Order{
		ID:       "order_" + uuid.NewString(),
		Amount:   minorUnits(in.Amount),
		Currency: currency,
		Receipt:  fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		Notes: OrderNotes{
			CourseID:    in.CourseID,
			StudentID:   in.StudentID,
			CourseTitle: in.CourseTitle,
		},
		Status:    OrderStatusCreated,
		CreatedAt: time.Now(),
	}

	if err := g.store.Put(ctx, order, g.orderTTL); err != nil {
		return nil, err
	}
	return order, nil
}

func (g *SimulatedGateway) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return g.store.Get(ctx, orderID)
}

// Signature computes the confirmation signature for an (order, payment)
// pair, matching the razorpay scheme: HMAC-SHA256("orderID|paymentID", key
// secret), hex encoded.
func (g *SimulatedGateway) Signature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment checks the confirmation against the reserved order. It is
// deterministic: no retries, no flakiness. The order must exist (not
// expired), reference the same course, and carry the same amount; the
// signature must match unless simulated mode is waving non-sentinel values
// through. A paid but unconsumed order stays verifiable, so a confirmation
// whose follow-up write failed can be resubmitted; only Consume closes the
// order for good.
func (g *SimulatedGateway) VerifyPayment(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	if in.Signature == SentinelInvalidSignature {
		return &VerifyResult{Success: false, Reason: "Invalid payment signature"}, nil
	}

	order, err := g.store.Get(ctx, in.OrderID)
	if err == ErrOrderNotFound {
		return &VerifyResult{Success: false, Reason: "Order not found or expired"}, nil
	}
	if err != nil {
		return nil, err
	}

	if order.Status == OrderStatusConsumed {
		return &VerifyResult{Success: false, Reason: "Order already processed"}, nil
	}
	if order.Notes.CourseID != in.CourseID {
		return &VerifyResult{Success: false, Reason: "Order does not match course"}, nil
	}
	if order.Amount != minorUnits(in.Amount) {
		return &VerifyResult{Success: false, Reason: "Payment amount mismatch"}, nil
	}

	if !g.simulated && !hmac.Equal([]byte(in.Signature), []byte(g.Signature(in.OrderID, in.PaymentID))) {
		return &VerifyResult{Success: false, Reason: "Invalid payment signature"}, nil
	}

	if err := g.store.SetStatus(ctx, in.OrderID, OrderStatusPaid); err != nil {
		return nil, err
	}

	return &VerifyResult{Success: true, Reason: "Payment verified"}, nil
}

// Consume retires a paid order once the purchase it settled has been
// recorded, so a replayed confirmation cannot settle twice.
func (g *SimulatedGateway) Consume(ctx context.Context, orderID string) error {
	return g.store.SetStatus(ctx, orderID, OrderStatusConsumed)
}
