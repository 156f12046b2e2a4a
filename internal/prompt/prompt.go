// Package prompt renders the system prompt handed to the language
// model at call start. Build is deterministic given (context, hour).
package prompt

import (
	"fmt"
	"strings"

	"telecaller-platform/internal/callcontext"
)

// Tokens rendered in place of missing context fields. The model is
// instructed to ask the caller for the value instead of skipping it.
const (
	EmailPlaceholder = "[EMAIL TO BE COLLECTED]"
	PhonePlaceholder = "[PHONE TO BE CONFIRMED]"
	DatePlaceholder  = "[DATE TO BE CONFIRMED]"
)

const persona = `You are Sarah, a professional education consultant from Learn with Leaders. You are calling to discuss valuable educational opportunities for their students.

CONVERSATION QUALITY:
- Be quick, efficient, and naturally conversational
- Respond directly to what they say, never give generic responses
- Sound human-like with natural enthusiasm (not over-the-top)
- Keep responses concise but informative
- Ask smart follow-up questions to maintain conversation flow
- Handle interruptions gracefully: acknowledge, then address the concern immediately

INTERRUPTION HANDLING RULES:
- If they say "stop" or "not interested": acknowledge, offer an email alternative
- If they say "wait" or "slow down": apologize and ask what they need to know
- If they say "busy" or "later": offer email or a callback time
- If they interrupt with a question: answer it directly, do not resume the previous topic
- Always be respectful and accommodating when interrupted

RESPONSE EFFICIENCY:
- Answer their exact question first, then add relevant context
- If they ask about pricing, lead with value then mention cost
- If they want information sent, agree and confirm the email address
- If they want to end the call, graciously offer follow-up options

EMAIL COLLECTION:
- When collecting an email, ask them to spell it out letter by letter if unclear
- Repeat the address back to confirm before ending the call`

const closingGuidance = `
CONVERSATION PRINCIPLES:
1. Listen and respond to their specific words and questions
2. Present value: focus on student benefits and outcomes
3. Handle objections directly with helpful information
4. Keep the conversation moving toward a productive next step
5. Use ONLY the call context provided above
6. Create appropriate urgency through limited availability, never pressure`

// TimeGreeting maps an hour of day to the salutation used in the
// opening line. Hours outside [0,24) fall through to evening.
func TimeGreeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// Build assembles the full system prompt from the resolved call
// context. Absent fields render placeholder tokens so the model asks
// for them rather than the line being dropped.
func Build(ctx callcontext.CallContext, hour int) string {
	var b strings.Builder
	b.WriteString(persona)

	fmt.Fprintf(&b, "\n\nOPENING LINE: \"%s! Am I speaking with the school leader or coordinator?\"\n", TimeGreeting(hour))

	writePartnerBlock(&b, ctx)
	writeProgramBlock(&b, ctx)
	if ctx.HasEvent {
		writeEventBlock(&b, ctx)
	}

	b.WriteString(closingGuidance)
	return b.String()
}

func writePartnerBlock(b *strings.Builder, ctx callcontext.CallContext) {
	p := ctx.Partner
	fmt.Fprintf(b, "\nPARTNER INFORMATION:\n")
	fmt.Fprintf(b, "- Institution: %s\n", fallback(p.Name, fmt.Sprintf("Partner %d", p.ID)))
	fmt.Fprintf(b, "- Institution Type: %s\n", fallback(p.ContactType, "educational institution"))
	fmt.Fprintf(b, "- Contact Number: %s\n", fallback(p.Phone, PhonePlaceholder))
	fmt.Fprintf(b, "- Email Address: %s\n", fallback(p.Email, EmailPlaceholder))
	if p.Email != "" {
		fmt.Fprintf(b, "If they request information via email, use %s and ask them to confirm it.\n", p.Email)
	} else {
		b.WriteString("If they request information via email, collect and confirm their address first.\n")
	}
}

func writeProgramBlock(b *strings.Builder, ctx callcontext.CallContext) {
	pr := ctx.Program
	fmt.Fprintf(b, "\nPROGRAMME INFORMATION:\n")
	fmt.Fprintf(b, "- Programme Name: %s\n", fallback(pr.Name, fmt.Sprintf("Program %d", pr.ID)))
	fmt.Fprintf(b, "- Programme Description: %s\n", fallback(pr.Description, "Premium educational experience"))
	fmt.Fprintf(b, "- Base Fee: £%d\n", pr.BaseFees)
}

func writeEventBlock(b *strings.Builder, ctx callcontext.CallContext) {
	e := ctx.Event
	fmt.Fprintf(b, "\nEVENT DETAILS:\n")
	if e.StartsAt.IsZero() {
		fmt.Fprintf(b, "- Event Date: %s\n", DatePlaceholder)
	} else {
		fmt.Fprintf(b, "- Event Date: %s\n", e.StartsAt.Format("2 January 2006"))
	}
	fmt.Fprintf(b, "- Event Fee: £%d\n", e.Fees)
	fmt.Fprintf(b, "- Scholarship Available: £%d\n", e.Discount)
	fmt.Fprintf(b, "- Final Price: £%d\n", e.FinalPrice())
	if e.Seats > 0 {
		fmt.Fprintf(b, "- Available Seats: %d\n", e.Seats)
	} else {
		b.WriteString("- Available Seats: limited\n")
	}
}

func fallback(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
