package tournament

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alphaScope/internal/model"
	"alphaScope/internal/storage"
)

// HistoryExporterConfig configures HistoryExporter.
type HistoryExporterConfig struct {
	Key string
	Now func() time.Time
}

// HistoryExporter publishes the payloads of finished tournaments.
type HistoryExporter struct {
	cfg     HistoryExporterConfig
	records RecordSource
	writer  storage.ObjectWriter
	logger  *zap.Logger
}

func NewHistoryExporter(cfg HistoryExporterConfig, records RecordSource, writer storage.ObjectWriter, logger *zap.Logger) *HistoryExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = "finalized_history.json"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HistoryExporter{cfg: cfg, records: records, writer: writer, logger: logger}
}

// Build returns the normalised payload of every finished tournament keyed by
// alpha id, or ALPHA_<row id> when the payload has none.
func (e *HistoryExporter) Build(ctx context.Context) (map[string]map[string]any, error) {
	tournaments, err := e.records.ListTournaments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}

	now := e.cfg.Now().UTC()
	out := make(map[string]map[string]any)
	legacy := 0
	for _, t := range tournaments {
		if !IsFinished(t, now) {
			continue
		}
		key, payload := Finalize(t)
		if t.AlphaID() == "" {
			legacy++
		}
		out[key] = payload
	}

	e.logger.Info("collected finished tournaments", zap.Int("total", len(out)), zap.Int("without_alpha_id", legacy))
	return out, nil
}

// Export uploads the archive when it holds at least one tournament.
func (e *HistoryExporter) Export(ctx context.Context) (int, error) {
	history, err := e.Build(ctx)
	if err != nil {
		return 0, err
	}
	if len(history) == 0 {
		e.logger.Warn("no finished tournaments, nothing uploaded")
		return 0, nil
	}
	if err := e.writer.PutJSON(ctx, e.cfg.Key, history, ""); err != nil {
		return 0, fmt.Errorf("upload finalized history: %w", err)
	}
	e.logger.Info("exported finalized history", zap.String("key", e.cfg.Key), zap.Int("tournaments", len(history)))
	return len(history), nil
}

// Finalize returns the archive key of t and a copy of its payload marked as
// finalized, carrying the row id and the row name and contract when absent.
func Finalize(t model.Tournament) (string, map[string]any) {
	payload := make(map[string]any, len(t.Data)+3)
	for k, v := range t.Data {
		payload[k] = v
	}

	key := t.AlphaID()
	if key == "" {
		key = fmt.Sprintf("ALPHA_%d", t.ID)
		payload["alphaId"] = key
	}

	prediction := map[string]any{}
	if existing, ok := t.Data["ai_prediction"].(map[string]any); ok {
		for k, v := range existing {
			prediction[k] = v
		}
	}
	prediction["status_label"] = labelFinalized
	payload["ai_prediction"] = prediction

	payload["id"] = t.ID
	if _, ok := payload["name"]; !ok && t.Name != "" {
		payload["name"] = t.Name
	}
	if _, ok := payload["contract"]; !ok && t.Contract != "" {
		payload["contract"] = t.Contract
	}
	return key, payload
}
