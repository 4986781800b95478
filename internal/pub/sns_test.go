package pub

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, f.err
}

func TestSNSPublishRaw(t *testing.T) {
	f := &fakeSNS{}
	p := NewSNS(f, "arn:aws:sns:us-east-1:000000000000:dappdir")

	require.NoError(t, p.PublishRaw(context.Background(), "record.upserted", []byte(`{"slug":"aave"}`)))
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:dappdir", aws.ToString(f.in.TopicArn))
	assert.Equal(t, `{"slug":"aave"}`, aws.ToString(f.in.Message))
	assert.Equal(t, "record.upserted", aws.ToString(f.in.MessageAttributes["event-type"].StringValue))
	assert.Equal(t, "application/json", aws.ToString(f.in.MessageAttributes["content-type"].StringValue))

	f.err = errors.New("throttled")
	assert.Error(t, p.PublishRaw(context.Background(), "record.deleted", []byte(`{}`)))
}
