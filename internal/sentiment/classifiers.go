package sentiment

import (
	"context"

	"github.com/spacesedan/sentilens/internal/models"
)

// SentimentClassifier labels text as positive or negative with a confidence
// in [0,1].
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (models.SentimentResult, error)
}

// EmotionClassifier returns the highest scoring emotions, best first.
type EmotionClassifier interface {
	DetectEmotions(ctx context.Context, text string) ([]models.EmotionScore, error)
}

// AspectClassifier returns one score per aspect the model surfaces.
type AspectClassifier interface {
	AnalyzeAspects(ctx context.Context, text string) ([]models.AspectScore, error)
}

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
)
