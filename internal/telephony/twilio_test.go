package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *TwilioProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewTwilioProvider("AC0000000000000000000000000000test", "token")
	p.baseURL = srv.URL
	return p
}

func TestPlaceCall_OK(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("missing basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("To"); got != "+15550001111" {
			t.Errorf("To = %q", got)
		}
		if got := r.PostFormValue("Url"); got != "https://api.example.com/call/webhook" {
			t.Errorf("Url = %q", got)
		}
		if got := r.PostFormValue("StatusCallback"); got == "" {
			t.Error("StatusCallback not set")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA1234","status":"queued"}`))
	})

	res, err := p.PlaceCall(context.Background(), PlaceCallRequest{
		To:                "+15550001111",
		From:              "+15550009999",
		VoiceURL:          "https://api.example.com/call/webhook",
		StatusCallbackURL: "https://api.example.com/call/status",
	})
	if err != nil {
		t.Fatalf("place call: %v", err)
	}
	if res.CallSid != "CA1234" || res.Status != "queued" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPlaceCall_RejectsBadNumber(t *testing.T) {
	p := NewTwilioProvider("AC", "token")
	for _, to := range []string{"", "15550001111", "+0123", "call-me"} {
		if _, err := p.PlaceCall(context.Background(), PlaceCallRequest{To: to, From: "+15550009999"}); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("to=%q: expected ErrInvalidNumber, got %v", to, err)
		}
	}
}

func TestPlaceCall_APIError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":20003,"message":"Authenticate"}`))
	})

	_, err := p.PlaceCall(context.Background(), PlaceCallRequest{To: "+15550001111", From: "+15550009999"})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}
