package metrics

import "time"

// RecordRun records the terminal status and duration of a pipeline run.
func RecordRun(status string, duration time.Duration) {
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineRunDuration.Observe(duration.Seconds())
	if status == "success" {
		PipelineLastSuccess.SetToCurrentTime()
	}
}

func RecordStageDuration(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func RecordStageFailure(stage string) {
	PipelineStageFailures.WithLabelValues(stage).Inc()
}

// RecordIngestion records the outcome counts of one ingestion run.
func RecordIngestion(source string, fetched, inserted, skipped, duplicated, failed int) {
	ArticlesFetchedTotal.WithLabelValues(source).Add(float64(fetched))
	ArticlesIngestedTotal.WithLabelValues("inserted").Add(float64(inserted))
	ArticlesIngestedTotal.WithLabelValues("skipped").Add(float64(skipped))
	ArticlesIngestedTotal.WithLabelValues("duplicated").Add(float64(duplicated))
	ArticlesIngestedTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordFeedFetch records a feed fetch. errorType is empty on success.
func RecordFeedFetch(source string, duration time.Duration, errorType string) {
	FeedFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if errorType != "" {
		FeedFetchErrors.WithLabelValues(source, errorType).Inc()
	}
}

func RecordMatching(articles, categoryMatches, keywordMatches int) {
	ArticlesMatchedTotal.Add(float64(articles))
	NotificationsCreatedTotal.WithLabelValues("category").Add(float64(categoryMatches))
	NotificationsCreatedTotal.WithLabelValues("keyword").Add(float64(keywordMatches))
}

func RecordEmails(sent, failed, skipped int) {
	EmailsTotal.WithLabelValues("sent").Add(float64(sent))
	EmailsTotal.WithLabelValues("failed").Add(float64(failed))
	EmailsTotal.WithLabelValues("skipped").Add(float64(skipped))
}
