package models

import "time"

type AnalysisRequest struct {
	Text *string `json:"text"`
}

type SentimentResult struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

type EmotionScore struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

// AspectScore mirrors the ABSA pipeline output; Sentiment is the raw model
// score for Aspect, not a polarity label.
type AspectScore struct {
	Aspect    string  `json:"aspect"`
	Sentiment float64 `json:"sentiment"`
}

type AnalysisResponse struct {
	Text      string          `json:"text"`
	Sentiment SentimentResult `json:"sentiment"`
	Emotions  []EmotionScore  `json:"emotions"`
	Aspects   []AspectScore   `json:"aspects"`
}

// AnalysisRecord is what result sinks receive once a response has been built.
type AnalysisRecord struct {
	AnalysisID   string `json:"analysis_id"`
	ClientIP     string `json:"client_ip"`
	OriginalText string `json:"original_text"`
	// PlainText is OriginalText with markdown, links and HTML tags removed.
	PlainText string `json:"plain_text"`
	AnalysisResponse
	CreatedAt time.Time `json:"created_at"`
}
