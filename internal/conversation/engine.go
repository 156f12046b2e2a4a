package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Role values on transcript entries.
const (
	RoleAssistant = "assistant"
	RoleCaller    = "caller"
)

// Entry is one utterance in the call transcript.
type Entry struct {
	Role  string    `json:"role"`
	Text  string    `json:"text"`
	Stage Stage     `json:"stage"`
	At    time.Time `json:"at"`
}

// State holds everything the engine knows about one active call. It
// lives only for the duration of the call and is never shared across
// calls. Callers must serialize access per call reference.
type State struct {
	SystemPrompt string
	Stage        Stage
	Entries      []Entry
	Objections   int
	Interests    int
	Exchanges    int
	StartedAt    time.Time
}

func NewState(systemPrompt string, startedAt time.Time) *State {
	return &State{
		SystemPrompt: systemPrompt,
		Stage:        StageGreeting,
		StartedAt:    startedAt,
	}
}

// Summary renders the one-line outcome persisted on the call log.
func (s *State) Summary() string {
	outcome := "neutral"
	switch {
	case s.Objections > 0 && s.Objections >= s.Interests:
		outcome = "objections raised"
	case s.Interests > 0:
		outcome = "interested"
	}
	return fmt.Sprintf("%s after %d exchanges (objections=%d interests=%d, last stage=%s)",
		outcome, s.Exchanges, s.Objections, s.Interests, s.Stage)
}

// Responder produces the assistant utterance for the current stage.
// Typically backed by the language model; the engine substitutes a
// static line when it fails.
type Responder interface {
	Respond(ctx context.Context, systemPrompt string, history []Entry, stage Stage) (string, error)
}

// Turn is the engine's output for one webhook exchange.
type Turn struct {
	Utterance string
	Stage     Stage
	// Done means the call flow is finished and the transport should
	// hang up after speaking the utterance.
	Done bool
}

// Engine advances call states one exchange at a time. It is stateless
// across calls and safe for concurrent use as long as each State is
// touched by one goroutine at a time.
type Engine struct {
	responder    Responder
	classifier   Classifier
	maxExchanges int
	maxDuration  time.Duration
	clock        func() time.Time
	log          *slog.Logger
}

func NewEngine(responder Responder, maxExchanges int, maxDuration time.Duration, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		responder:    responder,
		classifier:   NewKeywordClassifier(),
		maxExchanges: maxExchanges,
		maxDuration:  maxDuration,
		clock:        time.Now,
		log:          log,
	}
}

// Step records the caller's utterance (empty on the first webhook),
// picks the stage to speak from, produces exactly one assistant
// utterance and advances the state. Step never fails: responder
// errors degrade to a static per-stage line.
func (e *Engine) Step(ctx context.Context, st *State, callerUtterance string) Turn {
	if st.Stage.Terminal() {
		return Turn{Utterance: "", Stage: StageEnded, Done: true}
	}
	now := e.clock()

	if callerUtterance != "" {
		st.Entries = append(st.Entries, Entry{Role: RoleCaller, Text: callerUtterance, Stage: st.Stage, At: now})
		switch e.classifier.Classify(callerUtterance) {
		case SignalObjection:
			st.Objections++
			if st.Stage.BranchesOnObjection() {
				st.Stage = StageObjectionHandling
			}
		case SignalInterest:
			st.Interests++
		}
	}

	// Caps guarantee termination of the objection loop.
	if st.Stage != StageClosing && e.capReached(st, now) {
		e.log.Info("conversation cap reached, forcing closing",
			"exchanges", st.Exchanges, "elapsed", now.Sub(st.StartedAt))
		st.Stage = StageClosing
	}

	speaking := st.Stage
	utterance, err := e.responder.Respond(ctx, st.SystemPrompt, st.Entries, speaking)
	if err != nil || utterance == "" {
		if err != nil {
			e.log.Warn("responder failed, using static line", "stage", speaking, "error", err)
		}
		utterance = fallbackLine(speaking)
	}

	st.Entries = append(st.Entries, Entry{Role: RoleAssistant, Text: utterance, Stage: speaking, At: now})
	st.Exchanges++
	st.Stage = speaking.successor()

	return Turn{Utterance: utterance, Stage: speaking, Done: st.Stage.Terminal()}
}

func (e *Engine) capReached(st *State, now time.Time) bool {
	if e.maxExchanges > 0 && st.Exchanges >= e.maxExchanges {
		return true
	}
	if e.maxDuration > 0 && now.Sub(st.StartedAt) >= e.maxDuration {
		return true
	}
	return false
}

// StaticResponder speaks the built-in stage scripts without a
// language model. Used when no OpenAI key is configured.
type StaticResponder struct{}

func (StaticResponder) Respond(ctx context.Context, system string, history []Entry, stage Stage) (string, error) {
	return fallbackLine(stage), nil
}

// fallbackLine is the static utterance spoken when the responder is
// unavailable. The call keeps moving; only hard telephony failures
// drop it.
func fallbackLine(s Stage) string {
	switch s {
	case StageGreeting:
		return "Hello! This is Sarah calling from Learn with Leaders. I hope you're having a wonderful day!"
	case StagePermissionCheck:
		return "Am I speaking with the school leader or coordinator? Do you have two or three minutes to discuss an educational opportunity for your students?"
	case StageIdentityVerification:
		return "Perfect! I'm calling because your school has such an excellent reputation for academic excellence, and I believe your students would be strong candidates for our programme."
	case StageProgramIntroduction:
		return "I'm calling about our summer programme, where students experience authentic university academic life, attend lectures by renowned professors and build global networks with peers from around the world."
	case StageBenefitsDiscussion:
		return "Students gain confidence in international settings, receive certificates that strengthen university applications, and develop global perspectives. We've seen students return with dramatically improved leadership skills."
	case StageObjectionHandling:
		return "I completely understand the concern. That's exactly why we offer flexible options and scholarships for deserving students. Many schools find the long-term benefits an excellent return on investment."
	case StagePricingDiscussion:
		return "The programme investment covers everything, and we're currently offering a scholarship that reduces the fee significantly for enrolled schools."
	case StageNextSteps:
		return "Would you like me to send you our detailed programme brochure and application forms? I can email them within the hour, or we can schedule a short follow-up call."
	case StageClosing:
		return "Thank you so much for your time today. I'll send the materials right away, and please don't hesitate to reach out with any questions. Have a wonderful rest of your day!"
	default:
		return "Thank you for your time. Goodbye!"
	}
}
