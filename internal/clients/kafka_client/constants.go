package kafka_client

import "time"

const (
	KAFKA_TOPIC_SENTIMENT_RESULTS = "sentiment-results" // completed analyses
)

const (
	MAX_RETRIES   = 3
	RETRY_DELAY   = 250 * time.Millisecond
	FLUSH_TIMEOUT = 5 * time.Second
)
