package metrics

import "video-relay/internal/publisher"

// publishObserver implements publisher.Observer using the Prometheus
// metrics declared in this package.
type publishObserver struct{}

// NewPublishObserver creates an observer that records upload metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewPublishObserver() publisher.Observer {
	return &publishObserver{}
}

func (o *publishObserver) ObserveUpload(durationSeconds float64, sizeBytes int64, err error) {
	PublishDuration.Observe(durationSeconds)
	if err != nil {
		PublishAttemptsTotal.WithLabelValues("error").Inc()
		return
	}
	PublishAttemptsTotal.WithLabelValues("success").Inc()
	PublishedBytesTotal.Add(float64(sizeBytes))
}

func (o *publishObserver) ObserveRetry() {
	PublishRetries.Inc()
}
