// Package orchestrator ties the call pipeline together: placing the
// outbound call, advancing the conversation on voice webhooks and
// finalizing the call log on status callbacks.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"telecaller-platform/internal/callcontext"
	"telecaller-platform/internal/calllog"
	"telecaller-platform/internal/conversation"
	"telecaller-platform/internal/prompt"
	"telecaller-platform/internal/telephony"
	"telecaller-platform/internal/transcript"
	"telecaller-platform/pkg/utils"
)

var (
	ErrTooManyCalls = errors.New("orchestrator: active call limit reached")
	ErrNoSuchCall   = errors.New("orchestrator: unknown call reference")
)

const activeCallsKey = "calls:active"

// Options carries the dialing surface and limits.
type Options struct {
	FromNumber       string
	VoiceWebhookURL  string
	StatusWebhookURL string
	MaxActiveCalls   int
	MaxCallDuration  time.Duration
}

// FollowUpSender mails programme details after a call where the
// partner expressed interest. Nil disables follow-ups.
type FollowUpSender interface {
	SendFollowUp(ctx context.Context, partnerID, programEventID int64) error
}

// Service orchestrates one call end to end. Redis is optional; a nil
// client disables the shared active-call cap (single instance mode).
type Service struct {
	opts     Options
	provider telephony.Provider
	resolver *callcontext.Resolver
	engine   *conversation.Engine
	logs     calllog.Store
	scripts  *transcript.Store
	followUp FollowUpSender
	rdb      *redis.Client
	sessions *sessionRegistry
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(
	opts Options,
	provider telephony.Provider,
	resolver *callcontext.Resolver,
	engine *conversation.Engine,
	logs calllog.Store,
	scripts *transcript.Store,
	followUp FollowUpSender,
	rdb *redis.Client,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		opts:     opts,
		provider: provider,
		resolver: resolver,
		engine:   engine,
		logs:     logs,
		scripts:  scripts,
		followUp: followUp,
		rdb:      rdb,
		sessions: newSessionRegistry(),
		log:      log,
		clock:    time.Now,
	}
}

type StartCallRequest struct {
	ToNumber  string `json:"to_number" binding:"required"`
	PartnerID int64  `json:"partner_id"`
	ProgramID int64  `json:"program_id"`
	EventID   int64  `json:"program_event_id"`
}

type StartCallResult struct {
	CallID  string `json:"call_id"`
	CallSid string `json:"call_sid"`
	Status  string `json:"status"`
}

// StartCall resolves context, builds the prompt, places the call and
// registers the conversation session under the provider's call sid.
func (s *Service) StartCall(ctx context.Context, req StartCallRequest) (StartCallResult, error) {
	req.ToNumber = strings.TrimSpace(req.ToNumber)
	if req.ToNumber == "" {
		return StartCallResult{}, fmt.Errorf("%w: to_number is required", telephony.ErrInvalidNumber)
	}
	if !telephony.ValidE164(req.ToNumber) {
		return StartCallResult{}, fmt.Errorf("%w: %q", telephony.ErrInvalidNumber, req.ToNumber)
	}

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return StartCallResult{}, err
	}

	callCtx := s.resolver.Resolve(ctx, req.PartnerID, req.ProgramID, req.EventID)
	now := s.clock()
	systemPrompt := prompt.Build(callCtx, now.Hour())

	placed, err := s.provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:                req.ToNumber,
		From:              s.opts.FromNumber,
		VoiceURL:          s.opts.VoiceWebhookURL,
		StatusCallbackURL: s.opts.StatusWebhookURL,
	})
	if err != nil {
		release()
		return StartCallResult{}, err
	}

	row, err := s.logs.Create(ctx, calllog.CallLog{
		PartnerID:      req.PartnerID,
		ProgramEventID: req.EventID,
		CallSid:        placed.CallSid,
		ToNumber:       req.ToNumber,
		StartedAt:      now.UTC(),
	})
	if err != nil {
		// The call is already ringing; keep going and reconcile later.
		s.log.Error("call log create failed", "call_sid", placed.CallSid, "error", err)
	}

	s.sessions.put(&session{
		callID:  row.ID,
		callSid: placed.CallSid,
		state:   conversation.NewState(systemPrompt, now),
	})

	s.log.Info("outbound call placed",
		"call_sid", placed.CallSid, "to", req.ToNumber,
		"partner_id", req.PartnerID, "context_source", callCtx.DatabaseSource)

	return StartCallResult{CallID: row.ID, CallSid: placed.CallSid, Status: placed.Status}, nil
}

// HandleVoice advances the conversation one exchange and renders the
// reply as TwiML. It always returns well-formed markup; pipeline
// failures degrade to an apology plus hangup.
func (s *Service) HandleVoice(ctx context.Context, form telephony.VoiceWebhookForm) string {
	sess, ok := s.sessions.get(form.CallSid)
	if !ok {
		s.log.Warn("voice webhook for unknown call", "call_sid", form.CallSid)
		return telephony.FallbackTwiML()
	}

	sess.mu.Lock()
	turn := s.engine.Step(ctx, sess.state, form.SpeechResult)
	sess.mu.Unlock()

	var (
		markup string
		err    error
	)
	if turn.Done {
		markup, err = telephony.SpeakAndHangup(turn.Utterance)
	} else {
		markup, err = telephony.SpeakAndGather(turn.Utterance, s.opts.VoiceWebhookURL)
	}
	if err != nil {
		s.log.Error("twiml render failed", "call_sid", form.CallSid, "error", err)
		return telephony.FallbackTwiML()
	}
	return markup
}

// HandleStatus finalizes the call log on a terminal status callback.
// Deliveries are idempotent and the terminal status is authoritative
// regardless of arrival order; non-terminal events are ignored.
func (s *Service) HandleStatus(ctx context.Context, form telephony.StatusWebhookForm) error {
	status := calllog.ParseStatus(form.CallStatus)
	if !status.IsTerminal() {
		s.log.Debug("ignoring non-terminal status", "call_sid", form.CallSid, "status", form.CallStatus)
		return nil
	}

	sess, hadSession := s.sessions.get(form.CallSid)
	outcome := ""
	transcriptPath := ""
	if hadSession {
		sess.mu.Lock()
		outcome = sess.state.Summary()
		transcriptPath = s.saveTranscript(sess)
		sess.mu.Unlock()
	}

	row, applied, err := s.logs.Finalize(ctx, form.CallSid, calllog.FinalizeRequest{
		Status:          status,
		DurationSeconds: form.CallDuration,
		EndedAt:         s.clock().UTC(),
		Outcome:         outcome,
		TranscriptPath:  transcriptPath,
		RecordingURL:    form.RecordingURL,
	})
	if err != nil && !errors.Is(err, calllog.ErrNotFound) {
		return err
	}

	// The session and its slot are reclaimed whenever a terminal event
	// arrives, even if the log row is missing or already terminal.
	// Keying on the session, not on applied, also keeps duplicate
	// deliveries from releasing the slot twice.
	if hadSession {
		s.sessions.remove(form.CallSid)
		s.releaseSlot(ctx)
	}
	if applied {
		s.log.Info("call finalized",
			"call_sid", form.CallSid, "status", status, "duration_s", form.CallDuration)
		s.sendFollowUp(ctx, row)
	}
	return nil
}

// sendFollowUp is best effort after an interested completed call; a
// mail failure never fails the status webhook.
func (s *Service) sendFollowUp(ctx context.Context, row calllog.CallLog) {
	if s.followUp == nil || row.Status != calllog.StatusCompleted ||
		row.PartnerID <= 0 || !strings.HasPrefix(row.Outcome, "interested") {
		return
	}
	if err := s.followUp.SendFollowUp(ctx, row.PartnerID, row.ProgramEventID); err != nil {
		s.log.Warn("follow-up email failed",
			"call_sid", row.CallSid, "partner_id", row.PartnerID, "error", err)
	}
}

// GetCall returns the call log row for a call id.
func (s *Service) GetCall(ctx context.Context, id string) (calllog.CallLog, error) {
	row, err := s.logs.Get(ctx, id)
	if errors.Is(err, calllog.ErrNotFound) {
		return calllog.CallLog{}, ErrNoSuchCall
	}
	return row, err
}

// ActiveSessions reports in-flight calls on this instance.
func (s *Service) ActiveSessions() int { return s.sessions.count() }

// saveTranscript is best effort; a failed write never blocks
// finalization. Caller holds the session lock.
func (s *Service) saveTranscript(sess *session) string {
	if s.scripts == nil {
		return ""
	}
	id := sess.callID
	if id == "" {
		id = sess.callSid
	}
	path, err := s.scripts.Save(transcript.Document{
		CallID:    id,
		CallSid:   sess.callSid,
		Summary:   sess.state.Summary(),
		StartedAt: sess.state.StartedAt,
		Entries:   sess.state.Entries,
	})
	if err != nil {
		s.log.Warn("transcript write failed", "call_sid", sess.callSid, "error", err)
		return ""
	}
	return path
}

func (s *Service) acquireSlot(ctx context.Context) (func(), error) {
	if s.rdb == nil {
		return func() {}, nil
	}
	ttl := s.opts.MaxCallDuration + 2*time.Minute
	ok, err := utils.AcquireSlot(ctx, s.rdb, activeCallsKey, s.opts.MaxActiveCalls, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire call slot: %w", err)
	}
	if !ok {
		return nil, ErrTooManyCalls
	}
	return func() { s.releaseSlot(ctx) }, nil
}

func (s *Service) releaseSlot(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := utils.ReleaseSlot(ctx, s.rdb, activeCallsKey); err != nil {
		s.log.Warn("release call slot failed", "error", err)
	}
}
