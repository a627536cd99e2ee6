package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"alphaScope/internal/model"
)

const (
	contentTypeJSON = "application/json"
	// LatestCacheControl is applied to objects read by the frontend on every poll.
	LatestCacheControl = "max-age=60"
)

// Bucket backends.
const (
	BackendS3   = "s3"
	BackendFile = "file"
	BackendMem  = "mem"
)

// BucketConfig selects and configures the object bucket.
type BucketConfig struct {
	Backend         string
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	LocalDir        string
}

// Keys are the object keys written by the jobs.
type Keys struct {
	Snapshot      string
	HistoryPrefix string
	Tails         string
}

// DefaultKeys returns the keys read by the frontend.
func DefaultKeys() Keys {
	return Keys{
		Snapshot:      "market-data.json",
		HistoryPrefix: "history/",
		Tails:         "tails_cache.json",
	}
}

// OpenBucket opens the bucket selected by cfg.Backend.
func OpenBucket(ctx context.Context, cfg BucketConfig) (*blob.Bucket, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendS3, "":
		if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("s3 bucket, access key id and secret access key are required")
		}
		region := cfg.Region
		if region == "" {
			region = "auto"
		}
		awsCfg := aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
		bucket, err := s3blob.OpenBucketV2(ctx, client, cfg.Bucket, nil)
		if err != nil {
			return nil, fmt.Errorf("open s3 bucket %s: %w", cfg.Bucket, err)
		}
		return bucket, nil
	case BackendFile:
		if cfg.LocalDir == "" {
			return nil, errors.New("local dir is required for the file backend")
		}
		bucket, err := fileblob.OpenBucket(cfg.LocalDir, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, fmt.Errorf("open local bucket %s: %w", cfg.LocalDir, err)
		}
		return bucket, nil
	case BackendMem:
		return memblob.OpenBucket(nil), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// BlobStore implements SnapshotStore and ObjectWriter on a gocloud bucket.
type BlobStore struct {
	bucket *blob.Bucket
	keys   Keys
	logger *zap.Logger
}

func NewBlobStore(bucket *blob.Bucket, keys Keys, logger *zap.Logger) *BlobStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultKeys()
	if keys.Snapshot == "" {
		keys.Snapshot = defaults.Snapshot
	}
	if keys.HistoryPrefix == "" {
		keys.HistoryPrefix = defaults.HistoryPrefix
	}
	if keys.Tails == "" {
		keys.Tails = defaults.Tails
	}
	return &BlobStore{bucket: bucket, keys: keys, logger: logger}
}

// LoadPrior reads the latest published snapshot. A missing or unreadable
// object yields an empty snapshot; individual bad records are skipped.
func (s *BlobStore) LoadPrior(ctx context.Context) (model.PriorSnapshot, error) {
	data, err := s.bucket.ReadAll(ctx, s.keys.Snapshot)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.PriorSnapshot{}, ctxErr
		}
		if gcerrors.Code(err) == gcerrors.NotFound {
			s.logger.Warn("no prior snapshot, starting fresh", zap.String("key", s.keys.Snapshot))
		} else {
			s.logger.Warn("prior snapshot unreadable, starting fresh", zap.String("key", s.keys.Snapshot), zap.Error(err))
		}
		return model.NewPriorSnapshot(nil), nil
	}

	records, skipped, err := decodeRecords(data)
	if err != nil {
		s.logger.Warn("prior snapshot malformed, starting fresh", zap.String("key", s.keys.Snapshot), zap.Error(err))
		return model.NewPriorSnapshot(nil), nil
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed prior records", zap.Int("skipped", skipped))
	}

	prior := model.NewPriorSnapshot(records)
	s.logger.Info("loaded prior snapshot", zap.Int("records", prior.Len()))
	return prior, nil
}

func decodeRecords(data []byte) ([]model.CanonicalRecord, int, error) {
	var doc struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}

	records := make([]model.CanonicalRecord, 0, len(doc.Data))
	skipped := 0
	for _, raw := range doc.Data {
		var rec model.CanonicalRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			continue
		}
		if rec.ID == "" {
			var legacy struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(raw, &legacy); err == nil {
				rec.ID = legacy.ID
			}
		}
		if rec.ID == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// PublishSnapshot writes the latest snapshot and its dated history copy.
func (s *BlobStore) PublishSnapshot(ctx context.Context, snapshot model.Snapshot, day time.Time) error {
	body, err := encodeCompact(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.write(ctx, s.keys.Snapshot, body, LatestCacheControl); err != nil {
		return err
	}
	s.logger.Info("published snapshot", zap.String("key", s.keys.Snapshot), zap.Int("records", len(snapshot.Data)))

	historyKey := s.HistoryKey(day)
	if err := s.write(ctx, historyKey, body, ""); err != nil {
		return err
	}
	s.logger.Info("published snapshot history", zap.String("key", historyKey))
	return nil
}

// HistoryKey returns the dated history key for day.
func (s *BlobStore) HistoryKey(day time.Time) string {
	return s.keys.HistoryPrefix + day.UTC().Format("2006-01-02") + ".json"
}

// PublishTails writes the tail table.
func (s *BlobStore) PublishTails(ctx context.Context, tails model.TailTable) error {
	body, err := encodeCompact(tails)
	if err != nil {
		return fmt.Errorf("encode tails: %w", err)
	}
	if err := s.write(ctx, s.keys.Tails, body, ""); err != nil {
		return err
	}
	s.logger.Info("published tails", zap.String("key", s.keys.Tails),
		zap.Int("total", len(tails.Total)), zap.Int("limit", len(tails.Limit)))
	return nil
}

// PutJSON writes value as a compact JSON object at key.
func (s *BlobStore) PutJSON(ctx context.Context, key string, value any, cacheControl string) error {
	body, err := encodeCompact(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.write(ctx, key, body, cacheControl)
}

// ReadJSON decodes the object at key into out.
func (s *BlobStore) ReadJSON(ctx context.Context, key string, out any) error {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Close releases the bucket.
func (s *BlobStore) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}

func (s *BlobStore) write(ctx context.Context, key string, body []byte, cacheControl string) error {
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType:  contentTypeJSON,
		CacheControl: cacheControl,
	})
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}

	if _, err := w.Write(body); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}

func encodeCompact(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
