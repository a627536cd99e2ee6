package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"alphaScope/internal/model"
)

func newMemStore(t *testing.T) *BlobStore {
	t.Helper()
	store := NewBlobStore(memblob.OpenBucket(nil), DefaultKeys(), nil)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadPriorMissingObject(t *testing.T) {
	store := newMemStore(t)

	prior, err := store.LoadPrior(context.Background())
	require.NoError(t, err)
	assert.Zero(t, prior.Len())
	assert.Equal(t, model.StatusUnknown, prior.Status("ALPHA_1"))
}

func TestLoadPriorSkipsBadRecords(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	doc := `{"meta":{"u":"2026-10-18 00:00:00","t":4,"c":"x"},"data":[
		{"i":"ALPHA_1","st":"DELISTED","ch":[{"p":1,"v":2}]},
		{"id":"ALPHA_2","st":"SPOT"},
		{"i":"ALPHA_3","p":"not-a-number"},
		{"s":"NOID"}
	]}`
	require.NoError(t, store.write(ctx, "market-data.json", []byte(doc), ""))

	prior, err := store.LoadPrior(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, prior.Len())
	assert.Equal(t, model.StatusDelisted, prior.Status("ALPHA_1"))
	assert.Equal(t, []model.ChartPoint{{Price: 1, Volume: 2}}, prior.Chart("ALPHA_1"))
	assert.Equal(t, model.StatusSpot, prior.Status("ALPHA_2"))
	_, ok := prior.Lookup("ALPHA_3")
	assert.False(t, ok)
}

func TestLoadPriorMalformedDocument(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()
	require.NoError(t, store.write(ctx, "market-data.json", []byte("<html>"), ""))

	prior, err := store.LoadPrior(ctx)
	require.NoError(t, err)
	assert.Zero(t, prior.Len())
}

func TestPublishSnapshotRoundTrip(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()
	day := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	snapshot := model.Snapshot{
		Meta: model.SnapshotMeta{UpdatedAt: "2026-10-19 08:00:00", Total: 1, Label: "WaveAlpha Data"},
		Data: []model.CanonicalRecord{{
			ID:     "ALPHA_9",
			Symbol: "Ñ&<>",
			Status: model.StatusAlpha,
			Volume: model.Volume{Rolling24h: 10, DailyTotal: 8, DailyLimit: 3, DailyOnchain: 5},
			Chart:  []model.ChartPoint{},
		}},
	}
	require.NoError(t, store.PublishSnapshot(ctx, snapshot, day))

	attrs, err := store.bucket.Attributes(ctx, "market-data.json")
	require.NoError(t, err)
	assert.Equal(t, LatestCacheControl, attrs.CacheControl)
	assert.Equal(t, "application/json", attrs.ContentType)

	latest, err := store.bucket.ReadAll(ctx, "market-data.json")
	require.NoError(t, err)
	history, err := store.bucket.ReadAll(ctx, "history/2026-10-19.json")
	require.NoError(t, err)
	assert.Equal(t, latest, history)
	assert.Contains(t, string(latest), `"s":"Ñ&<>"`)
	assert.NotContains(t, string(latest), "\n")

	prior, err := store.LoadPrior(ctx)
	require.NoError(t, err)
	rec, ok := prior.Lookup("ALPHA_9")
	require.True(t, ok)
	assert.Equal(t, snapshot.Data[0], rec)
}

func TestPublishTails(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	tails := model.NewTailTable()
	tails.Total["ALPHA_1"] = []float64{3, 2.5, 0}
	require.NoError(t, store.PublishTails(ctx, tails))

	var got model.TailTable
	require.NoError(t, store.ReadJSON(ctx, "tails_cache.json", &got))
	assert.Equal(t, tails.Total, got.Total)
	assert.Empty(t, got.Limit)
}

func TestOpenBucketValidation(t *testing.T) {
	ctx := context.Background()

	_, err := OpenBucket(ctx, BucketConfig{Backend: BackendS3, Bucket: "b"})
	assert.Error(t, err)

	_, err = OpenBucket(ctx, BucketConfig{Backend: "ftp"})
	assert.Error(t, err)

	bucket, err := OpenBucket(ctx, BucketConfig{Backend: BackendFile, LocalDir: filepath.Join(t.TempDir(), "out")})
	require.NoError(t, err)
	require.NoError(t, bucket.Close())
}

func TestJsonlAuditSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "decisions.jsonl")
	sink := NewJsonlAuditSink(path)

	require.NoError(t, sink.PutDecisions([]model.Decision{
		{ID: "ALPHA_1", Final: model.StatusAlpha, Fetched: true},
		{ID: "ALPHA_2", Final: model.StatusDelisted, Error: "timeout"},
	}))
	require.NoError(t, sink.PutDecisions([]model.Decision{{ID: "ALPHA_3", Final: model.StatusSpot}}))
	require.NoError(t, sink.PutDecisions(nil))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var d model.Decision
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &d))
		ids = append(ids, d.ID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"ALPHA_1", "ALPHA_2", "ALPHA_3"}, ids)
}
