package events

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"

	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
)

// KinesisAdapter publishes through
// github.com/aws/aws-sdk-go-v2/service/kinesis, the same AWS SDK v2 family
// SQSAdapter uses.
type KinesisAdapter struct {
	Client     *kinesis.Client
	StreamName string
}

// NewKinesisAdapter wraps client as an Adapter publishing to streamName.
func NewKinesisAdapter(client *kinesis.Client, streamName string) *KinesisAdapter {
	return &KinesisAdapter{Client: client, StreamName: streamName}
}

func (a *KinesisAdapter) Name() string { return constant.AdapterKinesis }

func (a *KinesisAdapter) IsAvailable() bool { return a.Client != nil && a.StreamName != "" }

func (a *KinesisAdapter) Publish(ctx context.Context, env DomainEventEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	partitionKey := env.Key
	if partitionKey == "" {
		partitionKey = env.Type
	}

	_, err = a.Client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(a.StreamName),
		Data:         payload,
		PartitionKey: aws.String(partitionKey),
	})

	return err
}

func (a *KinesisAdapter) HealthProbe(ctx context.Context) health.ProbeResult {
	if !a.IsAvailable() {
		return health.ProbeResult{Status: health.StatusDown, Details: map[string]any{"reason": "stream not configured"}}
	}

	_, err := a.Client.DescribeStreamSummary(ctx, &kinesis.DescribeStreamSummaryInput{StreamName: aws.String(a.StreamName)})
	if err != nil {
		return health.ProbeResult{Status: health.StatusDegraded, Details: map[string]any{"error": err.Error()}}
	}

	return health.ProbeResult{Status: health.StatusUP}
}
