package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

var e164 = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// ValidE164 reports whether number is a plausible E.164 dial string.
func ValidE164(number string) bool { return e164.MatchString(number) }

// TwilioProvider places outbound calls through the Twilio REST API.
// TwiML for the call is served back to Twilio from the voice webhook.
type TwilioProvider struct {
	accountSID string
	authToken  string
	httpClient *http.Client
	baseURL    string
}

func NewTwilioProvider(accountSID, authToken string) *TwilioProvider {
	return &TwilioProvider{
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    twilioAPIBase,
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/Accounts/%s.json", p.baseURL, p.accountSID), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: account fetch returned %d", ErrProvider, resp.StatusCode)
	}
	return nil
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if !e164.MatchString(req.To) {
		return PlaceCallResult{}, fmt.Errorf("%w: %q", ErrInvalidNumber, req.To)
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", req.VoiceURL)
	form.Set("Method", http.MethodPost)
	form.Set("StatusCallback", req.StatusCallbackURL)
	form.Set("StatusCallbackMethod", http.MethodPost)
	form.Set("StatusCallbackEvent", "completed busy no-answer failed")

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, err
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("%w: read response: %v", ErrProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return PlaceCallResult{}, fmt.Errorf("%w: status %d code %d: %s",
			ErrProvider, resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	var out struct {
		Sid    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return PlaceCallResult{}, fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	if out.Sid == "" {
		return PlaceCallResult{}, fmt.Errorf("%w: response missing call sid", ErrProvider)
	}
	return PlaceCallResult{CallSid: out.Sid, Status: out.Status}, nil
}
