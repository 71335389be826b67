package awsx

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsEmitter publishes business-level counters to CloudWatch.
type MetricsEmitter struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetricsEmitter returns an emitter bound to a metric namespace.
func NewMetricsEmitter(client CloudWatchAPI, namespace string) *MetricsEmitter {
	return &MetricsEmitter{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// CountOutcome increments the PaymentConfirmation metric for the given outcome dimension.
func (m *MetricsEmitter) CountOutcome(ctx context.Context, outcome string) error {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("PaymentConfirmation"),
				Value:      sdkaws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  sdkaws.Time(m.nowFunc()),
				Dimensions: []cwtypes.Dimension{
					{Name: awsString("Outcome"), Value: &outcome},
				},
			},
		},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
