package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

type HugotConfig struct {
	ModelDir       string
	SentimentModel string // empty skips the sentiment pipeline
	EmotionModel   string
	ABSAModel      string
}

// HugotClient owns the ONNX runtime session and the text classification
// pipelines built on it. Pipelines are created once and only read afterwards.
type HugotClient struct {
	session   *hugot.Session
	Sentiment *pipelines.TextClassificationPipeline
	Emotion   *pipelines.TextClassificationPipeline
	ABSA      *pipelines.TextClassificationPipeline
}

func NewHugotClient(cfg HugotConfig) (*HugotClient, error) {
	if err := os.MkdirAll(cfg.ModelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("[HugotClient] failed to create model directory: %w", err)
	}

	slog.Info("[HugotClient] Initializing ORT session")
	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[HugotClient] failed to initialize session: %w", err)
	}

	client := &HugotClient{session: session}
	fail := func(err error) (*HugotClient, error) {
		if destroyErr := client.Destroy(); destroyErr != nil {
			err = errors.Join(err, destroyErr)
		}
		return nil, err
	}

	if cfg.SentimentModel != "" {
		// Every class probability is needed to pick the winning polarity.
		client.Sentiment, err = client.newPipeline(cfg.ModelDir, cfg.SentimentModel, "sentimentPipeline",
			pipelines.WithSoftmax(), pipelines.WithMultiLabel())
		if err != nil {
			return fail(err)
		}
	}

	client.Emotion, err = client.newPipeline(cfg.ModelDir, cfg.EmotionModel, "emotionPipeline",
		pipelines.WithSoftmax(), pipelines.WithMultiLabel())
	if err != nil {
		return fail(err)
	}

	client.ABSA, err = client.newPipeline(cfg.ModelDir, cfg.ABSAModel, "absaPipeline",
		pipelines.WithSoftmax())
	if err != nil {
		return fail(err)
	}

	slog.Info("[HugotClient] Pipelines ready")
	return client, nil
}

func (h *HugotClient) newPipeline(modelDir, model, name string, opts ...hugot.TextClassificationOption) (*pipelines.TextClassificationPipeline, error) {
	modelPath, err := ensureModel(modelDir, model)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pipeline, err := hugot.NewPipeline(h.session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      name,
		Options:   opts,
	})
	if err != nil {
		return nil, fmt.Errorf("[HugotClient] failed to initialize %s: %w", name, err)
	}

	slog.Info("[HugotClient] Pipeline initialized",
		slog.String("pipeline", name),
		slog.String("model", model),
		slog.Duration("elapsed", time.Since(start)))
	return pipeline, nil
}

// Ready reports whether the session is still alive.
func (h *HugotClient) Ready() bool {
	return h != nil && h.session != nil
}

// Probe runs a one-word inference through the emotion pipeline, the model
// every analysis needs, and fails if the runtime no longer produces output.
func (h *HugotClient) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !h.Ready() || h.Emotion == nil {
		return errors.New("[HugotClient] session is not initialized")
	}

	out, err := h.Emotion.RunPipeline([]string{"ok"})
	if err != nil {
		return fmt.Errorf("[HugotClient] probe inference failed: %w", err)
	}
	if out == nil || len(out.ClassificationOutputs) == 0 || len(out.ClassificationOutputs[0]) == 0 {
		return errors.New("[HugotClient] probe inference returned no labels")
	}
	return nil
}

func (h *HugotClient) Destroy() error {
	if h == nil || h.session == nil {
		return nil
	}
	slog.Info("[HugotClient] Destroying session")
	err := h.session.Destroy()
	h.session = nil
	return err
}

// ensureModel returns the local path of model, downloading it from the
// Hugging Face hub the first time it is needed.
func ensureModel(modelDir, model string) (string, error) {
	modelPath := LocalModelPath(modelDir, model)
	if _, err := os.Stat(modelPath); err == nil {
		slog.Info("[HugotClient] Using existing model", slog.String("path", modelPath))
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("[HugotClient] failed to stat model %s: %w", modelPath, err)
	}

	slog.Info("[HugotClient] Model not found, downloading...", slog.String("model", model))
	downloaded, err := hugot.DownloadModel(model, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("[HugotClient] failed to download model %s: %w", model, err)
	}
	slog.Info("[HugotClient] Model downloaded successfully", slog.String("path", downloaded))
	return downloaded, nil
}

// LocalModelPath mirrors the directory naming hugot uses for downloads.
func LocalModelPath(modelDir, model string) string {
	return filepath.Join(modelDir, strings.ReplaceAll(model, "/", "_"))
}
