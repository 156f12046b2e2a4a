package telephony

import (
	"context"
	"errors"
)

// Provider is the provider-agnostic outbound calling interface.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic.
// - Business logic (stage decisions) is not made here.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// PlaceCall requests an outbound call and returns the provider's
	// opaque call reference used to correlate webhook events.
	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
}

var (
	ErrInvalidNumber = errors.New("telephony: invalid destination number")
	ErrProvider      = errors.New("telephony: provider request failed")
)

type PlaceCallRequest struct {
	To   string `json:"to"`
	From string `json:"from"`

	// VoiceURL receives the conversation webhooks once the call
	// connects; StatusCallbackURL receives lifecycle status events.
	VoiceURL          string `json:"voice_url"`
	StatusCallbackURL string `json:"status_callback_url"`
}

type PlaceCallResult struct {
	CallSid string `json:"call_sid"`
	Status  string `json:"status"`
}
