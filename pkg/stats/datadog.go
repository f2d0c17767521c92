package stats

import (
	"context"
	"time"

	datadog "github.com/DataDog/datadog-api-client-go/api/v2/datadog"
	"github.com/rs/zerolog/log"
)

type DatadogPublisher struct {
	client *datadog.APIClient
}

// NewDatadogPublisher creates a gauge publisher. API keys are expected on the
// request context via datadog.ContextAPIKeys.
func NewDatadogPublisher() *DatadogPublisher {
	configuration := datadog.NewConfiguration()
	return &DatadogPublisher{client: datadog.NewAPIClient(configuration)}
}

func (p *DatadogPublisher) PostGauge(ctx context.Context, metricName string, value float64, tags []string) {
	now := time.Now().Unix()
	point := datadog.MetricPoint{
		Timestamp: datadog.PtrInt64(now),
		Value:     datadog.PtrFloat64(value),
	}
	series := datadog.MetricSeries{
		Metric: metricName,
		Type:   datadog.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadog.MetricPoint{point},
		Tags:   tags,
	}
	payload := datadog.MetricPayload{
		Series: []datadog.MetricSeries{series},
	}
	_, _, err := p.client.MetricsApi.SubmitMetrics(ctx, payload)
	if err != nil {
		log.Error().Err(err).Msgf("Error when calling MetricsApi.SubmitMetrics for %s", metricName)
		return
	}
	log.Debug().Msgf("Metric %s posted successfully", metricName)
}
