package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SMSSender delivers one transactional SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// snsAPI is the minimal SNS surface required by SNSSMSSender.
// *sns.Client satisfies this interface.
type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var smsE164 = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

type snsSMSSender struct {
	api      snsAPI
	senderID string
}

// NewSNSSMSSender wraps an SNS client. senderID may be empty; when
// set it is truncated to the 11-character carrier limit.
func NewSNSSMSSender(api snsAPI, senderID string) (SMSSender, error) {
	if api == nil {
		return nil, errors.New("notify: sns api must not be nil")
	}
	if len(senderID) > 11 {
		senderID = senderID[:11]
	}
	return &snsSMSSender{api: api, senderID: senderID}, nil
}

func (s *snsSMSSender) SendSMS(ctx context.Context, to, message string) error {
	if !smsE164.MatchString(to) {
		return fmt.Errorf("notify: invalid phone number %q", to)
	}
	if message == "" {
		return errors.New("notify: message is required")
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	_, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("notify: send sms to %s: %w", to, err)
	}
	return nil
}
