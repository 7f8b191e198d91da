package sentiment

import (
	"context"
	"math"

	"github.com/jonreiter/govader"
	"github.com/spacesedan/sentilens/internal/models"
)

// VADERClassifier is the lexicon sentiment backend, for hosts without an ONNX
// runtime. It implements SentimentClassifier.
type VADERClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERClassifier() *VADERClassifier {
	return &VADERClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// ClassifySentiment maps the compound score c in [-1,1] to a label by sign
// and to a confidence of (|c|+1)/2.
func (v *VADERClassifier) ClassifySentiment(ctx context.Context, text string) (models.SentimentResult, error) {
	if err := ctx.Err(); err != nil {
		return models.SentimentResult{}, err
	}

	score := v.analyzer.PolarityScores(text).Compound

	label := LabelPositive
	if score < 0 {
		label = LabelNegative
	}

	return models.SentimentResult{
		Sentiment:  label,
		Confidence: clampUnit((math.Abs(score) + 1) / 2),
	}, nil
}
