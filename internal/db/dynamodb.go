package db

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/sentilens/internal/models"
	"github.com/spacesedan/sentilens/internal/utils"
)

const (
	maxBatchSize     = 25 // BatchWriteItem limit
	maxRetries       = 3
	initialBackoff   = 500 * time.Millisecond
	resultTTL        = 24 * time.Hour
	defaultFlushTick = 5 * time.Second
)

type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ResultStore archives analysis records in DynamoDB. Records are buffered and
// written in batches, either when a full batch is waiting or on every tick of
// Run.
type ResultStore struct {
	client        BatchWriter
	table         string
	buffer        *utils.BatchBuffer[map[string]types.AttributeValue]
	flushInterval time.Duration
	backoff       time.Duration
	now           func() time.Time
}

func NewResultStore(client BatchWriter, table string) *ResultStore {
	return &ResultStore{
		client:        client,
		table:         table,
		buffer:        utils.NewBatchBuffer[map[string]types.AttributeValue](maxBatchSize),
		flushInterval: defaultFlushTick,
		backoff:       initialBackoff,
		now:           time.Now,
	}
}

func (s *ResultStore) Name() string { return "dynamodb" }

func (s *ResultStore) Publish(ctx context.Context, record models.AnalysisRecord) error {
	item, err := s.recordToItem(record)
	if err != nil {
		return err
	}

	if s.buffer.Add(item) >= maxBatchSize {
		return s.Flush(ctx)
	}
	return nil
}

// Run flushes on a ticker until ctx is done, then flushes what is left.
func (s *ResultStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.Flush(flushCtx); err != nil {
				slog.Error("[DynamoDB] Final flush failed", slog.String("error", err.Error()))
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				slog.Error("[DynamoDB] Periodic flush failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *ResultStore) Flush(ctx context.Context) error {
	batch := s.buffer.GetAndClear()
	if len(batch) == 0 {
		return nil
	}

	for i, chunk := range utils.Chunk(batch, maxBatchSize) {
		if err := s.writeChunk(ctx, chunk); err != nil {
			// Puts are keyed by analysis_id, so rewriting a partly stored chunk is safe.
			pending := batch[i*maxBatchSize:]
			s.buffer.Requeue(pending)
			slog.Warn("[DynamoDB] Requeued analysis results after failed write",
				slog.Int("count", len(pending)))
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored analysis results",
		slog.Int("count", len(batch)))
	return nil
}

func (s *ResultStore) writeChunk(ctx context.Context, items []map[string]types.AttributeValue) error {
	writeRequests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.table: writeRequests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write analysis results: %w", err)
	}

	retryCount := 0
	backoff := s.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < maxRetries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed analysis results...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d analysis results not written after %d retries", remaining, maxRetries)
	}
	return nil
}

func (s *ResultStore) recordToItem(record models.AnalysisRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMapWithOptions(record, func(o *attributevalue.EncoderOptions) {
		o.TagKey = "json"
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] Failed to marshal analysis record: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	item["created_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(createdAt.Unix(), 10)}
	item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(createdAt.Add(resultTTL).Unix(), 10)}
	return item, nil
}
