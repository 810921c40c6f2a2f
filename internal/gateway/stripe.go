package gateway

import (
	"context"
	"encoding/json"
	"strconv"

	"coursehub-backend/internal/domain"

	"github.com/go-resty/resty/v2"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// StripeConfig carries the Checkout credentials and redirect targets.
type StripeConfig struct {
	SecretKey  string
	SuccessURL string // must contain {CHECKOUT_SESSION_ID}, Stripe substitutes it
	CancelURL  string
	Currency   string
}

type stripeGateway struct {
	client *resty.Client
	cfg    StripeConfig
}

// NewStripeGateway builds a PaymentGateway on Stripe's Checkout Session REST API.
func NewStripeGateway(cfg StripeConfig) domain.PaymentGateway {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	client := resty.New().
		SetBaseURL(stripeAPIBase).
		SetAuthToken(cfg.SecretKey)
	return &stripeGateway{client: client, cfg: cfg}
}

// stripeSession mirrors the subset of Stripe's session payload we consume.
type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	PaymentIntent string `json:"payment_intent"`
	Metadata      struct {
		CourseID  string `json:"course_id"`
		StudentID string `json:"student_id"`
	} `json:"metadata"`
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, course *domain.Course, student *domain.User) (*domain.CheckoutSession, error) {
	// Stripe works in the currency's smallest unit
	unitAmount := int64(course.Price * 100)

	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"mode":           "payment",
			"success_url":    g.cfg.SuccessURL,
			"cancel_url":     g.cfg.CancelURL,
			"customer_email": student.Email,
			"line_items[0][price_data][currency]":                  g.cfg.Currency,
			"line_items[0][price_data][product_data][name]":        course.Title,
			"line_items[0][price_data][product_data][description]": "Instructor: " + course.InstructorName,
			"line_items[0][price_data][unit_amount]":               strconv.FormatInt(unitAmount, 10),
			"line_items[0][quantity]":                              "1",
			"metadata[course_id]":                                  strconv.FormatUint(uint64(course.ID), 10),
			"metadata[student_id]":                                 strconv.FormatUint(uint64(student.ID), 10),
		}).
		Post("/checkout/sessions")
	if err != nil {
		return nil, domain.Upstreamf("create checkout session: %v", err)
	}
	if resp.StatusCode() != 200 {
		return nil, domain.Upstreamf("create checkout session: stripe returned %d: %s", resp.StatusCode(), resp.String())
	}

	return decodeSession(resp.Body())
}

func (g *stripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		Get("/checkout/sessions/" + sessionID)
	if err != nil {
		return nil, domain.Upstreamf("retrieve checkout session: %v", err)
	}
	if resp.StatusCode() == 404 {
		return nil, domain.NotFoundf("checkout session %s", sessionID)
	}
	if resp.StatusCode() != 200 {
		return nil, domain.Upstreamf("retrieve checkout session: stripe returned %d: %s", resp.StatusCode(), resp.String())
	}

	return decodeSession(resp.Body())
}

func decodeSession(body []byte) (*domain.CheckoutSession, error) {
	var s stripeSession
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, domain.Upstreamf("invalid session payload: %v", err)
	}

	session := &domain.CheckoutSession{
		ID:              s.ID,
		URL:             s.URL,
		PaymentStatus:   s.PaymentStatus,
		PaymentIntentID: s.PaymentIntent,
	}
	if s.Metadata.CourseID != "" {
		id, err := strconv.ParseUint(s.Metadata.CourseID, 10, 64)
		if err != nil {
			return nil, domain.Upstreamf("invalid course_id metadata %q", s.Metadata.CourseID)
		}
		session.CourseID = uint(id)
	}
	if s.Metadata.StudentID != "" {
		id, err := strconv.ParseUint(s.Metadata.StudentID, 10, 64)
		if err != nil {
			return nil, domain.Upstreamf("invalid student_id metadata %q", s.Metadata.StudentID)
		}
		session.StudentID = uint(id)
	}
	return session, nil
}
