// Package reporting aggregates call log rows into summary metrics
// for the reporting API.
package reporting

import (
	"context"
	"errors"
	"strings"
	"time"

	"telecaller-platform/internal/calllog"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type CallsSummaryRequest struct {
	Range TimeRange `json:"range"`
	Limit int       `json:"limit,omitempty"`
}

type CallsSummary struct {
	Range TimeRange `json:"range"`

	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	NoAnswerCalls  int `json:"no_answer_calls"`
	BusyCalls      int `json:"busy_calls"`
	InFlightCalls  int `json:"in_flight_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	InterestedCalls int `json:"interested_calls"`
	ObjectionCalls  int `json:"objection_calls"`
	RecordedCalls   int `json:"recorded_calls"`
}

type Service struct {
	logs calllog.Store
}

func NewService(logs calllog.Store) *Service { return &Service{logs: logs} }

// CallsSummary aggregates calls started inside the range. Average
// duration counts completed calls only; a wall of failed dials must
// not dilute it.
func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.logs == nil {
		return CallsSummary{}, errors.New("reporting: call log store not configured")
	}

	rows, err := s.logs.List(ctx, req.Range.From, req.Range.To, req.Limit)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{Range: req.Range}
	completedDuration := 0
	for _, row := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += row.DurationSeconds
		if row.RecordingURL != "" {
			out.RecordedCalls++
		}
		switch row.Status {
		case calllog.StatusCompleted:
			out.CompletedCalls++
			completedDuration += row.DurationSeconds
		case calllog.StatusFailed:
			out.FailedCalls++
		case calllog.StatusNoAnswer:
			out.NoAnswerCalls++
		case calllog.StatusBusy:
			out.BusyCalls++
		default:
			out.InFlightCalls++
		}
		outcome := strings.ToLower(row.Outcome)
		switch {
		case strings.HasPrefix(outcome, "interested"):
			out.InterestedCalls++
		case strings.HasPrefix(outcome, "objections"):
			out.ObjectionCalls++
		}
	}
	if out.CompletedCalls > 0 {
		out.AverageDurationSeconds = completedDuration / out.CompletedCalls
	}
	return out, nil
}
