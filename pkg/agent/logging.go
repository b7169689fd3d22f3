package agent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ResearchEvent captures one reasoning turn for later analysis.
type ResearchEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase"`
	Iteration int       `json:"iteration"`
	Action    string    `json:"action"`
	Tools     []string  `json:"tools,omitempty"`
	Reasoning string    `json:"reasoning"`
}

// ResearchLogger writes each event as a JSON line.
type ResearchLogger struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewResearchLogger creates a JSONL trace logger at the given path.
func NewResearchLogger(path string) (*ResearchLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &ResearchLogger{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Log writes a single event as JSONL.
func (l *ResearchLogger) Log(ev ResearchEvent) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return l.writer.Flush()
}

// Close flushes and closes the logger.
func (l *ResearchLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != nil {
		_ = l.writer.Flush()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
