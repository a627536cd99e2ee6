package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"alphaScope/internal/model"
)

// JsonlAuditSink appends reconciliation decisions to a JSONL file.
type JsonlAuditSink struct {
	path string
	mu   sync.Mutex
}

func NewJsonlAuditSink(path string) *JsonlAuditSink {
	return &JsonlAuditSink{path: path}
}

// PutDecisions appends one JSON line per decision.
func (s *JsonlAuditSink) PutDecisions(decisions []model.Decision) error {
	if len(decisions) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create audit dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, decision := range decisions {
		if err := encoder.Encode(decision); err != nil {
			return fmt.Errorf("write decision %s: %w", decision.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush audit file: %w", err)
	}
	return nil
}
