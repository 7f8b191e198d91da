package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/sentilens/internal/metrics"
	"github.com/spacesedan/sentilens/internal/models"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyText = errors.New("text input cannot be empty")

// Analyzer normalises text and runs the three classifiers over it. The
// classifiers share no state, so they run concurrently; any failure fails the
// whole analysis.
type Analyzer struct {
	sentiment SentimentClassifier
	emotions  EmotionClassifier
	aspects   AspectClassifier
}

func NewAnalyzer(sentiment SentimentClassifier, emotions EmotionClassifier, aspects AspectClassifier) *Analyzer {
	return &Analyzer{
		sentiment: sentiment,
		emotions:  emotions,
		aspects:   aspects,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, raw string) (models.AnalysisResponse, error) {
	if IsBlank(raw) {
		return models.AnalysisResponse{}, ErrEmptyText
	}

	text := Normalize(raw)
	resp := models.AnalysisResponse{Text: text}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer observe("sentiment", time.Now())
		result, err := a.sentiment.ClassifySentiment(gctx, text)
		if err != nil {
			return err
		}
		resp.Sentiment = result
		return nil
	})
	g.Go(func() error {
		defer observe("emotion", time.Now())
		result, err := a.emotions.DetectEmotions(gctx, text)
		if err != nil {
			return err
		}
		resp.Emotions = result
		return nil
	})
	g.Go(func() error {
		defer observe("aspect", time.Now())
		result, err := a.aspects.AnalyzeAspects(gctx, text)
		if err != nil {
			return err
		}
		resp.Aspects = result
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("[Analyzer] Analysis failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return models.AnalysisResponse{}, fmt.Errorf("[Analyzer] analysis failed: %w", err)
	}

	if resp.Emotions == nil {
		resp.Emotions = []models.EmotionScore{}
	}
	if resp.Aspects == nil {
		resp.Aspects = []models.AspectScore{}
	}

	slog.Debug("[Analyzer] Analysis complete",
		slog.Int("text_length", len(text)),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func observe(classifier string, start time.Time) {
	metrics.InferenceDuration.WithLabelValues(classifier).Observe(time.Since(start).Seconds())
}
