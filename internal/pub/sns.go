package pub

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the part of *sns.Client the publisher uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsPub struct {
	cli      SNSAPI
	topicArn string
}

// NewSNS publishes every event to topicArn, with the subject carried as the "event-type" attribute so
// subscribers can filter on it.
func NewSNS(c SNSAPI, topicArn string) *snsPub { return &snsPub{cli: c, topicArn: topicArn} }

func (s *snsPub) PublishRaw(ctx context.Context, subject string, payload []byte) error {
	_, err := s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicArn),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"content-type": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
			"event-type":   {DataType: aws.String("String"), StringValue: aws.String(subject)},
		},
	})
	return err
}
