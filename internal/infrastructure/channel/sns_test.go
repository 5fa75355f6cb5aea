package channel

import (
	"context"
	"errors"
	"testing"

	appErrors "notifier/internal/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSNSSender_Send(t *testing.T) {
	fake := &fakeSNS{}
	s := NewSNSSenderWithClient(fake, SNSConfig{SenderID: "Studio"})

	id, err := s.Send(context.Background(), "+15551234567", nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "+15551234567", aws.ToString(fake.input.PhoneNumber))
	assert.Equal(t, "hello", aws.ToString(fake.input.Message))
	assert.Equal(t, "Transactional", aws.ToString(fake.input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "Studio", aws.ToString(fake.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSNSSender_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		terminal bool
	}{
		{"opted out", &smithy.GenericAPIError{Code: "OptedOut", Message: "opted out"}, true},
		{"invalid parameter", &smithy.GenericAPIError{Code: "InvalidParameter", Message: "bad number"}, true},
		{"throttled", &smithy.GenericAPIError{Code: "Throttling", Message: "slow"}, false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSNSSenderWithClient(&fakeSNS{err: tt.err}, SNSConfig{})
			_, err := s.Send(context.Background(), "+15551234567", nil, "hello")
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrProvider)
			assert.Equal(t, tt.terminal, appErrors.IsTerminal(err))
		})
	}
}
