package events

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
)

// SQSAdapter publishes through github.com/aws/aws-sdk-go-v2/service/sqs,
// the same AWS SDK v2 family used elsewhere in the retrieved corpus for
// S3/Secrets Manager access.
type SQSAdapter struct {
	Client   *sqs.Client
	QueueURL string
}

// NewSQSAdapter wraps client as an Adapter publishing to queueURL.
func NewSQSAdapter(client *sqs.Client, queueURL string) *SQSAdapter {
	return &SQSAdapter{Client: client, QueueURL: queueURL}
}

func (a *SQSAdapter) Name() string { return constant.AdapterSQS }

func (a *SQSAdapter) IsAvailable() bool { return a.Client != nil && a.QueueURL != "" }

func (a *SQSAdapter) Publish(ctx context.Context, env DomainEventEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	attrs := map[string]types.MessageAttributeValue{
		"type": {DataType: aws.String("String"), StringValue: aws.String(env.Type)},
	}

	for k, v := range env.Headers {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(a.QueueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	}

	if env.Key != "" {
		input.MessageGroupId = aws.String(env.Key)
	}

	_, err = a.Client.SendMessage(ctx, input)

	return err
}

func (a *SQSAdapter) HealthProbe(ctx context.Context) health.ProbeResult {
	if !a.IsAvailable() {
		return health.ProbeResult{Status: health.StatusDown, Details: map[string]any{"reason": "queue url not configured"}}
	}

	_, err := a.Client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{QueueUrl: aws.String(a.QueueURL)})
	if err != nil {
		return health.ProbeResult{Status: health.StatusDegraded, Details: map[string]any{"error": err.Error()}}
	}

	return health.ProbeResult{Status: health.StatusUP}
}
