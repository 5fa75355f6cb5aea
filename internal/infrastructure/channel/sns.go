package channel

import (
	"context"
	"errors"
	"fmt"
	appErrors "notifier/internal/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
)

const snsProvider = "aws_sns"

var snsTerminalCodes = map[string]struct{}{
	"InvalidParameter":      {},
	"InvalidParameterValue": {},
	"OptedOut":              {},
	"AuthorizationError":    {},
}

// SNSPublishAPI is the slice of the SNS client the adapter needs.
type SNSPublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSConfig configures the AWS SNS SMS adapter.
type SNSConfig struct {
	Region   string
	SenderID string
	SMSType  string // Transactional or Promotional
}

// SNSSender sends SMS directly to phone numbers through AWS SNS.
type SNSSender struct {
	client SNSPublishAPI
	cfg    SNSConfig
}

// NewSNSSender loads the default AWS configuration (env, shared config, IAM role) and builds the adapter.
func NewSNSSender(ctx context.Context, cfg SNSConfig) (*SNSSender, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	return NewSNSSenderWithClient(sns.NewFromConfig(awsCfg), cfg), nil
}

// NewSNSSenderWithClient builds the adapter around an existing client.
func NewSNSSenderWithClient(client SNSPublishAPI, cfg SNSConfig) *SNSSender {
	if cfg.SMSType == "" {
		cfg.SMSType = "Transactional"
	}
	return &SNSSender{client: client, cfg: cfg}
}

// Send publishes one SMS. subject is ignored.
func (s *SNSSender) Send(ctx context.Context, to string, _ *string, body string) (string, error) {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(s.cfg.SMSType),
		},
	}
	if s.cfg.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.cfg.SenderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", classifySNS(err)
	}
	return aws.ToString(out.MessageId), nil
}

func classifySNS(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := snsTerminalCodes[code]; ok {
			return appErrors.NewTerminal(snsProvider, code, err)
		}
		return appErrors.NewTransient(snsProvider, code, err)
	}
	return appErrors.NewTransient(snsProvider, "", err)
}
