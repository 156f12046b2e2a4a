package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"telecaller-platform/internal/catalog"
)

// FollowUpMailer emails programme details to a partner after a call
// where they expressed interest. Lookups come from the catalog so the
// mail always reflects current pricing, not what was quoted live.
type FollowUpMailer struct {
	email EmailSender
	store catalog.Store
	log   *slog.Logger
}

func NewFollowUpMailer(email EmailSender, store catalog.Store, log *slog.Logger) *FollowUpMailer {
	if log == nil {
		log = slog.Default()
	}
	return &FollowUpMailer{email: email, store: store, log: log}
}

// SendFollowUp mails the partner the details of the event discussed on
// the call. A partner without a contact email is an error; the caller
// decides whether that is fatal.
func (m *FollowUpMailer) SendFollowUp(ctx context.Context, partnerID, eventID int64) error {
	if m.email == nil {
		return errors.New("notify: email sender not configured")
	}
	if partnerID <= 0 {
		return errors.New("notify: partner id is required")
	}

	partner, err := m.store.GetPartner(ctx, partnerID)
	if err != nil {
		return fmt.Errorf("notify: follow-up partner %d: %w", partnerID, err)
	}
	if partner.Email == "" {
		return fmt.Errorf("notify: partner %d has no contact email", partnerID)
	}

	subject := "Programme details from Learn with Leaders"
	body := m.composeBody(ctx, partner, eventID)

	if err := m.email.SendEmail(ctx, partner.Email, subject, body); err != nil {
		return err
	}
	m.log.Info("follow-up email sent",
		"partner_id", partnerID, "event_id", eventID, "to", maskDestination(partner.Email))
	return nil
}

func (m *FollowUpMailer) composeBody(ctx context.Context, partner catalog.Partner, eventID int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", partner.Name)
	b.WriteString("Thank you for taking the time to speak with us today. As promised, here are the programme details we discussed.\n\n")

	event, err := m.store.GetEvent(ctx, eventID)
	if err == nil {
		program, perr := m.store.GetProgram(ctx, event.ProgramID)
		if perr == nil {
			fmt.Fprintf(&b, "Programme: %s\n", program.Name)
			if program.Description != "" {
				fmt.Fprintf(&b, "%s\n", program.Description)
			}
		}
		fmt.Fprintf(&b, "Event date: %s\n", event.StartsAt.Format("2 January 2006"))
		fmt.Fprintf(&b, "Programme fee: £%d\n", event.Fees)
		if event.Discount > 0 {
			fmt.Fprintf(&b, "Scholarship: £%d\n", event.Discount)
		}
		fmt.Fprintf(&b, "Final price: £%d\n", event.FinalPrice())
		if event.Seats > 0 {
			fmt.Fprintf(&b, "Seats remaining: %d\n", event.Seats)
		}
		b.WriteString("\n")
	} else if eventID > 0 {
		m.log.Warn("follow-up event lookup failed, sending without details",
			"event_id", eventID, "error", err)
	}

	b.WriteString("We would be delighted to answer any questions and help your students get started.\n\n")
	b.WriteString("Warm regards,\nSarah\nLearn with Leaders")
	return b.String()
}
