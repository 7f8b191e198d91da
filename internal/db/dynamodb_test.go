package db

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/sentilens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "AnalysisResults"

type fakeWriter struct {
	mu sync.Mutex
	// unprocessed is returned for the first n calls.
	unprocessedCalls int
	err              error
	calls            []*dynamodb.BatchWriteItemInput
}

func (f *fakeWriter) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &dynamodb.BatchWriteItemOutput{}
	if len(f.calls) <= f.unprocessedCalls {
		reqs := in.RequestItems[testTable]
		out.UnprocessedItems = map[string][]types.WriteRequest{testTable: reqs[:1]}
	}
	return out, nil
}

func (f *fakeWriter) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeWriter) requestSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		sizes = append(sizes, len(c.RequestItems[testTable]))
	}
	return sizes
}

func testRecord(id string) models.AnalysisRecord {
	return models.AnalysisRecord{
		AnalysisID:   id,
		ClientIP:     "192.0.2.10",
		OriginalText: "Great food!",
		AnalysisResponse: models.AnalysisResponse{
			Text:      "great food",
			Sentiment: models.SentimentResult{Sentiment: "positive", Confidence: 0.99},
			Emotions:  []models.EmotionScore{{Emotion: "joy", Confidence: 0.8}},
			Aspects:   []models.AspectScore{{Aspect: "Positive", Sentiment: 0.95}},
		},
		CreatedAt: time.Unix(1_700_000_000, 0),
	}
}

func newTestStore(w BatchWriter) *ResultStore {
	s := NewResultStore(w, testTable)
	s.backoff = time.Millisecond
	return s
}

func TestResultStoreRecordToItem(t *testing.T) {
	item, err := newTestStore(&fakeWriter{}).recordToItem(testRecord("a-1"))
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: "a-1"}, item["analysis_id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "great food"}, item["text"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1700000000"}, item["created_at"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: strconv.FormatInt(1_700_000_000+int64(resultTTL.Seconds()), 10)}, item["ttl"])

	sentiment, ok := item["sentiment"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "positive"}, sentiment.Value["sentiment"])

	emotions, ok := item["emotions"].(*types.AttributeValueMemberL)
	require.True(t, ok)
	assert.Len(t, emotions.Value, 1)
}

func TestResultStoreFlushesFullBatches(t *testing.T) {
	writer := &fakeWriter{}
	store := newTestStore(writer)

	for i := 0; i < maxBatchSize-1; i++ {
		require.NoError(t, store.Publish(context.Background(), testRecord(strconv.Itoa(i))))
	}
	assert.Empty(t, writer.requestSizes())

	require.NoError(t, store.Publish(context.Background(), testRecord("last")))
	assert.Equal(t, []int{maxBatchSize}, writer.requestSizes())
	assert.Zero(t, store.buffer.Size())
}

func TestResultStoreFlushPartialBatch(t *testing.T) {
	writer := &fakeWriter{}
	store := newTestStore(writer)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Publish(context.Background(), testRecord(strconv.Itoa(i))))
	}
	require.NoError(t, store.Flush(context.Background()))
	assert.Equal(t, []int{3}, writer.requestSizes())

	require.NoError(t, store.Flush(context.Background()))
	assert.Len(t, writer.requestSizes(), 1, "empty flush should not call DynamoDB")
}

func TestResultStoreRetriesUnprocessedItems(t *testing.T) {
	writer := &fakeWriter{unprocessedCalls: 2}
	store := newTestStore(writer)

	require.NoError(t, store.Publish(context.Background(), testRecord("a")))
	require.NoError(t, store.Publish(context.Background(), testRecord("b")))
	require.NoError(t, store.Flush(context.Background()))

	assert.Equal(t, []int{2, 1, 1}, writer.requestSizes())
}

func TestResultStoreGivesUpAfterRetries(t *testing.T) {
	writer := &fakeWriter{unprocessedCalls: 100}
	store := newTestStore(writer)

	require.NoError(t, store.Publish(context.Background(), testRecord("a")))
	err := store.Flush(context.Background())
	require.Error(t, err)
	assert.Len(t, writer.requestSizes(), maxRetries+1)
}

func TestResultStoreWriteError(t *testing.T) {
	boom := errors.New("throttled")
	store := newTestStore(&fakeWriter{err: boom})

	require.NoError(t, store.Publish(context.Background(), testRecord("a")))
	require.ErrorIs(t, store.Flush(context.Background()), boom)
}

func TestResultStoreKeepsRecordsAfterFailedFlush(t *testing.T) {
	writer := &fakeWriter{err: errors.New("throttled")}
	store := newTestStore(writer)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Publish(context.Background(), testRecord(strconv.Itoa(i))))
	}
	require.Error(t, store.Flush(context.Background()))
	assert.Equal(t, 10, store.buffer.Size())

	writer.setErr(nil)
	require.NoError(t, store.Flush(context.Background()))
	assert.Equal(t, []int{10, 10}, writer.requestSizes())
	assert.Zero(t, store.buffer.Size())
}

func TestResultStoreRequeuesUnattemptedChunks(t *testing.T) {
	writer := &fakeWriter{err: errors.New("timeout")}
	store := newTestStore(writer)

	// Bypass Publish so no flush is triggered at the batch limit.
	for i := 0; i < maxBatchSize+5; i++ {
		item, err := store.recordToItem(testRecord(strconv.Itoa(i)))
		require.NoError(t, err)
		store.buffer.Add(item)
	}

	require.Error(t, store.Flush(context.Background()))
	assert.Equal(t, []int{maxBatchSize}, writer.requestSizes(), "later chunks are not attempted")
	assert.Equal(t, maxBatchSize+5, store.buffer.Size())

	writer.setErr(nil)
	require.NoError(t, store.Flush(context.Background()))
	assert.Equal(t, []int{maxBatchSize, maxBatchSize, 5}, writer.requestSizes(), "failed chunk, then both chunks")

	first, ok := writer.calls[1].RequestItems[testTable][0].PutRequest.Item["analysis_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "0", first.Value)
}

func TestResultStoreRunFlushesOnShutdown(t *testing.T) {
	writer := &fakeWriter{}
	store := newTestStore(writer)
	store.flushInterval = time.Hour

	require.NoError(t, store.Publish(context.Background(), testRecord("a")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, []int{1}, writer.requestSizes())
}
