package models

// CreateOrderRequest opens a checkout reservation. Amount is ignored in
// favor of the listed course price.
type CreateOrderRequest struct {
	CourseID string  `json:"courseId"`
	Amount   float64 `json:"amount"`
}

// VerifyPaymentRequest is the razorpay-shaped confirmation callback body.
type VerifyPaymentRequest struct {
	OrderID   string  `json:"razorpay_order_id"`
	PaymentID string  `json:"razorpay_payment_id"`
	Signature string  `json:"razorpay_signature"`
	CourseID  string  `json:"courseId"`
	Amount    float64 `json:"amount"`
}
