package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// VoiceWebhookForm captures the subset of voice webhook fields the
// conversation loop consumes. Twilio posts
// application/x-www-form-urlencoded by default.
type VoiceWebhookForm struct {
	CallSid      string
	From         string
	To           string
	CallStatus   string
	SpeechResult string
	Confidence   float64
}

func ParseVoiceWebhook(r *http.Request) (VoiceWebhookForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceWebhookForm{}, err
	}
	confidence, _ := strconv.ParseFloat(r.PostFormValue("Confidence"), 64)
	return VoiceWebhookForm{
		CallSid:      r.PostFormValue("CallSid"),
		From:         strings.TrimSpace(r.PostFormValue("From")),
		To:           strings.TrimSpace(r.PostFormValue("To")),
		CallStatus:   r.PostFormValue("CallStatus"),
		SpeechResult: strings.TrimSpace(r.PostFormValue("SpeechResult")),
		Confidence:   confidence,
	}, nil
}

// StatusWebhookForm captures lifecycle status callbacks.
type StatusWebhookForm struct {
	CallSid        string
	CallStatus     string
	CallDuration   int
	From           string
	To             string
	RecordingURL   string
	SequenceNumber int
}

func ParseStatusWebhook(r *http.Request) (StatusWebhookForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusWebhookForm{}, err
	}
	duration, _ := strconv.Atoi(r.PostFormValue("CallDuration"))
	seq, _ := strconv.Atoi(r.PostFormValue("SequenceNumber"))
	return StatusWebhookForm{
		CallSid:        r.PostFormValue("CallSid"),
		CallStatus:     r.PostFormValue("CallStatus"),
		CallDuration:   duration,
		From:           strings.TrimSpace(r.PostFormValue("From")),
		To:             strings.TrimSpace(r.PostFormValue("To")),
		RecordingURL:   r.PostFormValue("RecordingUrl"),
		SequenceNumber: seq,
	}, nil
}
