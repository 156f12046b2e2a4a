// Package notify delivers follow-up email and SMS, including the OTP
// flow used to verify a contact before sending programme materials.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailSender is what the rest of the platform depends on; the SES
// implementation stays behind it so handlers are testable without AWS.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// sesAPI is the minimal SESv2 surface required by SESEmailSender.
// *sesv2.Client satisfies this interface.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESEmailSender struct {
	api  sesAPI
	from string
}

func NewSESEmailSender(api sesAPI, from string) (*SESEmailSender, error) {
	if api == nil {
		return nil, errors.New("notify: ses api must not be nil")
	}
	if !strings.Contains(from, "@") {
		return nil, fmt.Errorf("notify: invalid sender address %q", from)
	}
	return &SESEmailSender{api: api, from: from}, nil
}

func (s *SESEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if !strings.Contains(to, "@") {
		return fmt.Errorf("notify: invalid recipient %q", to)
	}
	if subject == "" || body == "" {
		return errors.New("notify: subject and body are required")
	}

	_, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: send email to %s: %w", to, err)
	}
	return nil
}
