package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileLedger keeps the full record list in a JSON file, rewritten on
// every append. Fine for one session per ledger file; concurrent
// sessions should use the Postgres backend instead.
type FileLedger struct {
	mu       sync.Mutex
	filePath string
	records  []Record
	sent     map[string]bool
}

func NewFileLedger(dir string) (*FileLedger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	l := &FileLedger{
		filePath: filepath.Join(dir, "submissions.json"),
		sent:     make(map[string]bool),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLedger) Exists(_ context.Context, postingID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent[postingID], nil
}

func (l *FileLedger) Append(_ context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	if rec.Outcome == OutcomeSent {
		l.sent[rec.PostingID] = true
	}
	return l.save()
}

func (l *FileLedger) Close() error {
	return nil
}

func (l *FileLedger) load() error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read ledger file: %w", err)
	}

	if err := json.Unmarshal(data, &l.records); err != nil {
		return fmt.Errorf("parse ledger file: %w", err)
	}

	for _, rec := range l.records {
		if rec.Outcome == OutcomeSent {
			l.sent[rec.PostingID] = true
		}
	}
	log.Printf("📋 Loaded %d submission records (%d contacted)", len(l.records), len(l.sent))
	return nil
}

func (l *FileLedger) save() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := os.WriteFile(l.filePath, data, 0644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}
