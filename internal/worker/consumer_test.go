package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rce-engine/analysis-worker/internal/model"
)

type delivery struct {
	data []byte
	ok   bool
	err  error
}

// fakeSub replays a scripted sequence of deliveries, then cancels the run
// context so the loop drains and exits.
type fakeSub struct {
	mu         sync.Mutex
	deliveries []delivery
	cancel     context.CancelFunc
	closed     bool
}

func (f *fakeSub) Next(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.deliveries) == 0 {
		f.cancel()
		return nil, false, nil
	}
	d := f.deliveries[0]
	f.deliveries = f.deliveries[1:]
	return d.data, d.ok, d.err
}

func (f *fakeSub) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string]*model.Report
	err   error
}

func (f *fakeStore) SaveReport(ctx context.Context, jobID string, report *model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]*model.Report)
	}
	f.saved[jobID] = report
	return nil
}

func jobPayload(t *testing.T, id, language, code string) []byte {
	t.Helper()
	data, err := json.Marshal(model.Job{JobID: id, Language: language, Code: code})
	require.NoError(t, err)
	return data
}

// runConsumer drives the loop over the scripted deliveries until drained.
func runConsumer(t *testing.T, deliveries []delivery, store *fakeStore) (*Consumer, *fakeSub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := &fakeSub{deliveries: deliveries, cancel: cancel}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(sub, store, log, 10*time.Millisecond)

	require.NoError(t, c.Run(ctx))
	return c, sub
}

func TestConsumerProcessesJob(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	c, sub := runConsumer(t, []delivery{
		{data: jobPayload(t, "job-1", "python", "eval(\"x\")"), ok: true},
	}, store)

	require.Contains(t, store.saved, "job-1")
	report := store.saved["job-1"]
	assert.Equal(t, 70, report.Score)
	assert.GreaterOrEqual(t, report.AnalysisTimeMs, 0.0)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.False(t, stats.LastAnalysis.IsZero())
	assert.True(t, sub.closed)
}

func TestConsumerDropsMalformedPayloads(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	c, _ := runConsumer(t, []delivery{
		{data: []byte("{not json"), ok: true},
		{data: []byte(`{"jobId":"job-2","language":"python"}`), ok: true},
		{data: jobPayload(t, "job-3", "python", "x = 1"), ok: true},
	}, store)

	assert.Len(t, store.saved, 1)
	assert.Contains(t, store.saved, "job-3")
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestConsumerIgnoresControlMessages(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	c, _ := runConsumer(t, []delivery{
		{ok: false},
		{data: jobPayload(t, "job-1", "javascript", "while(true){}"), ok: true},
		{ok: false},
	}, store)

	assert.Equal(t, int64(1), c.Stats().Processed)
	assert.Equal(t, 90, store.saved["job-1"].Score)
}

func TestConsumerPersistenceFailureNotCounted(t *testing.T) {
	t.Parallel()

	store := &fakeStore{err: errors.New("no submission matched")}
	c, _ := runConsumer(t, []delivery{
		{data: jobPayload(t, "job-1", "python", "x = 1"), ok: true},
	}, store)

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Processed)
	assert.True(t, stats.LastAnalysis.IsZero())
}

// Neither a syntax error nor an unknown language is a pipeline fault: both
// reports are still delivered and the loop keeps consuming.
func TestConsumerSurvivesDegradedReports(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	c, _ := runConsumer(t, []delivery{
		{data: jobPayload(t, "bad-syntax", "python", "def broken(:"), ok: true},
		{data: jobPayload(t, "unknown", "cobol", "DISPLAY 'X'."), ok: true},
		{data: jobPayload(t, "fine", "python", "x = 1"), ok: true},
	}, store)

	assert.Equal(t, int64(3), c.Stats().Processed)
	assert.Equal(t, model.ComplexityError, store.saved["bad-syntax"].Complexity)
	assert.Equal(t, 0, store.saved["bad-syntax"].Score)
	assert.Equal(t, model.ComplexityUnknown, store.saved["unknown"].Complexity)
	assert.Equal(t, 100, store.saved["unknown"].Score)
}

func TestConsumerRecoversFromBrokerError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	c, _ := runConsumer(t, []delivery{
		{err: errors.New("connection reset")},
		{data: jobPayload(t, "job-1", "python", "x = 1"), ok: true},
	}, store)

	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestConsumerStatsBeforeAnyJob(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(&fakeSub{}, &fakeStore{}, log, time.Second)

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Processed)
	assert.True(t, stats.LastAnalysis.IsZero())
}
