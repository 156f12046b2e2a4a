package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"telecaller-platform/internal/catalog"
)

// CampaignResult aggregates per-partner outcomes of one bulk run.
type CampaignResult struct {
	EventID   int64           `json:"event_id"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Partners  []PartnerResult `json:"partners"`
}

type PartnerResult struct {
	PartnerID int64  `json:"partner_id"`
	CallSid   string `json:"call_sid,omitempty"`
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
}

// Campaign fans one program event out to a list of partners. Policy
// is fire-once: a partner's failure is recorded and the batch moves
// on; there is no retry and no ordering guarantee.
type Campaign struct {
	calls   *Service
	catalog catalog.Store
	log     *slog.Logger
}

func NewCampaign(calls *Service, store catalog.Store, log *slog.Logger) *Campaign {
	if log == nil {
		log = slog.Default()
	}
	return &Campaign{calls: calls, catalog: store, log: log}
}

// Execute dials every partner for the event and reports per-partner
// success or the failure reason.
func (c *Campaign) Execute(ctx context.Context, eventID int64, partnerIDs []int64) (CampaignResult, error) {
	event, err := c.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return CampaignResult{}, fmt.Errorf("campaign event %d: %w", eventID, err)
	}

	out := CampaignResult{EventID: eventID, Partners: make([]PartnerResult, 0, len(partnerIDs))}
	for _, pid := range partnerIDs {
		res := c.dialPartner(ctx, event, pid)
		if res.OK {
			out.Succeeded++
		} else {
			out.Failed++
		}
		out.Partners = append(out.Partners, res)
	}

	c.log.Info("campaign finished",
		"event_id", eventID, "succeeded", out.Succeeded, "failed", out.Failed)
	return out, nil
}

func (c *Campaign) dialPartner(ctx context.Context, event catalog.ProgramEvent, partnerID int64) PartnerResult {
	partner, err := c.catalog.GetPartner(ctx, partnerID)
	if err != nil {
		return PartnerResult{PartnerID: partnerID, Reason: "partner not found"}
	}
	if partner.Phone == "" {
		return PartnerResult{PartnerID: partnerID, Reason: "no phone number"}
	}

	started, err := c.calls.StartCall(ctx, StartCallRequest{
		ToNumber:  partner.Phone,
		PartnerID: partnerID,
		ProgramID: event.ProgramID,
		EventID:   event.ID,
	})
	if err != nil {
		c.log.Warn("campaign call failed", "partner_id", partnerID, "error", err)
		return PartnerResult{PartnerID: partnerID, Reason: err.Error()}
	}
	return PartnerResult{PartnerID: partnerID, CallSid: started.CallSid, OK: true}
}
