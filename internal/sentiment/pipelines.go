package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/sentilens/internal/models"
)

const DefaultEmotionTopK = 3

// MaxSentimentInputRunes keeps sentiment inputs inside a 512 token window.
// A WordPiece token covers at least one rune, leaving room for [CLS] and [SEP].
const MaxSentimentInputRunes = 510

var ErrNoPipelineOutput = errors.New("pipeline returned no output")

// TextClassifier is the subset of *pipelines.TextClassificationPipeline the
// classifiers rely on.
type TextClassifier interface {
	RunPipeline(inputs []string) (*pipelines.TextClassificationOutput, error)
}

type PipelineSentimentClassifier struct {
	pipeline TextClassifier
}

// NewPipelineSentimentClassifier expects a pipeline configured to return the
// softmax probability of every class.
func NewPipelineSentimentClassifier(pipeline TextClassifier) *PipelineSentimentClassifier {
	return &PipelineSentimentClassifier{pipeline: pipeline}
}

func (c *PipelineSentimentClassifier) ClassifySentiment(ctx context.Context, text string) (models.SentimentResult, error) {
	scores, err := runSingle(ctx, c.pipeline, truncateRunes(text, MaxSentimentInputRunes))
	if err != nil {
		return models.SentimentResult{}, fmt.Errorf("[SentimentClassifier] %w", err)
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	label := LabelNegative
	if isPositiveLabel(best.Label) {
		label = LabelPositive
	}

	return models.SentimentResult{
		Sentiment:  label,
		Confidence: clampUnit(float64(best.Score)),
	}, nil
}

type PipelineEmotionClassifier struct {
	pipeline TextClassifier
	topK     int
}

func NewPipelineEmotionClassifier(pipeline TextClassifier, topK int) *PipelineEmotionClassifier {
	if topK <= 0 {
		topK = DefaultEmotionTopK
	}
	return &PipelineEmotionClassifier{pipeline: pipeline, topK: topK}
}

// DetectEmotions keeps the topK labels by score. Equal scores keep the order
// in which the model reported its labels.
func (c *PipelineEmotionClassifier) DetectEmotions(ctx context.Context, text string) ([]models.EmotionScore, error) {
	scores, err := runSingle(ctx, c.pipeline, text)
	if err != nil {
		return nil, fmt.Errorf("[EmotionClassifier] %w", err)
	}

	ranked := make([]pipelines.ClassificationOutput, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > c.topK {
		ranked = ranked[:c.topK]
	}

	emotions := make([]models.EmotionScore, 0, len(ranked))
	for _, r := range ranked {
		emotions = append(emotions, models.EmotionScore{
			Emotion:    r.Label,
			Confidence: clampUnit(float64(r.Score)),
		})
	}
	return emotions, nil
}

type PipelineAspectClassifier struct {
	pipeline TextClassifier
}

func NewPipelineAspectClassifier(pipeline TextClassifier) *PipelineAspectClassifier {
	return &PipelineAspectClassifier{pipeline: pipeline}
}

// AnalyzeAspects passes the model's label and score through unchanged.
func (c *PipelineAspectClassifier) AnalyzeAspects(ctx context.Context, text string) ([]models.AspectScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("[AspectClassifier] %w", err)
	}

	out, err := c.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("[AspectClassifier] pipeline failed: %w", err)
	}

	aspects := []models.AspectScore{}
	if out == nil || len(out.ClassificationOutputs) == 0 {
		return aspects, nil
	}
	for _, r := range out.ClassificationOutputs[0] {
		aspects = append(aspects, models.AspectScore{
			Aspect:    r.Label,
			Sentiment: float64(r.Score),
		})
	}
	return aspects, nil
}

func runSingle(ctx context.Context, pipeline TextClassifier, text string) ([]pipelines.ClassificationOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("pipeline failed: %w", err)
	}
	if out == nil || len(out.ClassificationOutputs) == 0 || len(out.ClassificationOutputs[0]) == 0 {
		return nil, ErrNoPipelineOutput
	}
	return out.ClassificationOutputs[0], nil
}

// isPositiveLabel covers both named (POSITIVE) and index (LABEL_1) label
// schemes; index 1 is the positive class of binary sentiment models.
func truncateRunes(text string, n int) string {
	count := 0
	for i := range text {
		if count == n {
			return strings.TrimRight(text[:i], " ")
		}
		count++
	}
	return text
}

func isPositiveLabel(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	return label == LabelPositive || label == "label_1" || label == "pos"
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
