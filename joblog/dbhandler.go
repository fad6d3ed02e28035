package joblog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DBHandler implements slog.Handler and writes log records to the database
// asynchronously. Records correlate to the audit job and step in the context.
type DBHandler struct {
	db        *sql.DB
	level     slog.Level
	attrs     []slog.Attr
	ch        chan *LogRecord
	stopCh    chan struct{}
	stopped   bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
	queueSize int
}

// DBHandlerConfig provides configuration options for the DBHandler.
type DBHandlerConfig struct {
	// QueueSize is the size of the internal buffer for log records.
	QueueSize int

	// Level is the minimum log level to handle.
	Level slog.Level
}

// DefaultDBHandlerConfig returns sensible default configuration.
func DefaultDBHandlerConfig() *DBHandlerConfig {
	return &DBHandlerConfig{
		QueueSize: 4096,
		Level:     slog.LevelInfo,
	}
}

// NewDBHandler creates a database handler for structured logging.
func NewDBHandler(db *sql.DB, config *DBHandlerConfig) *DBHandler {
	if config == nil {
		config = DefaultDBHandlerConfig()
	}

	handler := &DBHandler{
		db:        db,
		level:     config.Level,
		ch:        make(chan *LogRecord, config.QueueSize),
		stopCh:    make(chan struct{}),
		queueSize: config.QueueSize,
	}

	handler.wg.Add(1)
	go handler.writer()

	return handler
}

// Enabled reports whether the handler handles records at the given level.
func (h *DBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return level >= h.level && !h.stopped
}

// Handle enqueues a log record for asynchronous persistence. When the queue
// is full the oldest record is dropped; logging never blocks the scheduler.
func (h *DBHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.RLock()
	if h.stopped {
		h.mu.RUnlock()
		return nil
	}
	h.mu.RUnlock()

	jobID, _ := JobIDFromCtx(ctx)
	stepID, hasStepID := StepIDFromCtx(ctx)

	attrs := make(map[string]any)
	for _, attr := range h.attrs {
		attrs[attr.Key] = attr.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	var attrsJSON *string
	if len(attrs) > 0 {
		if jsonBytes, err := json.Marshal(attrs); err == nil {
			jsonStr := string(jsonBytes)
			attrsJSON = &jsonStr
		}
	}

	logRecord := &LogRecord{
		JobID:     stringPtr(jobID),
		Level:     levelToString(record.Level),
		Message:   record.Message,
		Attrs:     attrsJSON,
		Timestamp: record.Time,
	}
	if hasStepID {
		logRecord.StepID = &stepID
	}

	select {
	case h.ch <- logRecord:
	default:
		select {
		case <-h.ch: // drop oldest
		default:
		}
		select {
		case h.ch <- logRecord:
		default:
		}
	}

	return nil
}

// WithAttrs returns a new handler with the given attributes added.
func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.RLock()
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	h.mu.RUnlock()

	return &DBHandler{
		db:        h.db,
		level:     h.level,
		attrs:     newAttrs,
		ch:        h.ch,
		stopCh:    h.stopCh,
		queueSize: h.queueSize,
	}
}

// WithGroup returns the handler unchanged; grouped attributes are flattened
// into the attrs JSON.
func (h *DBHandler) WithGroup(name string) slog.Handler {
	return h
}

// Close stops the handler and waits for all pending writes to complete.
func (h *DBHandler) Close() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stopCh)
	close(h.ch)
	h.wg.Wait()
	return nil
}

func (h *DBHandler) writer() {
	defer h.wg.Done()

	stmt, err := h.db.Prepare(`
		INSERT INTO log_events (job_id, step_id, level, message, attrs, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		fmt.Printf("ERROR: Failed to prepare log insert statement: %v\n", err)
		return
	}
	defer stmt.Close()

	const batchSize = 100
	batch := make([]*LogRecord, 0, batchSize)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case record, ok := <-h.ch:
			if !ok {
				if len(batch) > 0 {
					h.writeBatch(stmt, batch)
				}
				return
			}

			batch = append(batch, record)
			if len(batch) >= batchSize {
				h.writeBatch(stmt, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				h.writeBatch(stmt, batch)
				batch = batch[:0]
			}

		case <-h.stopCh:
			if len(batch) > 0 {
				h.writeBatch(stmt, batch)
			}
			return
		}
	}
}

func (h *DBHandler) writeBatch(stmt *sql.Stmt, batch []*LogRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		fmt.Printf("ERROR: Failed to start transaction for log batch: %v\n", err)
		return
	}
	defer tx.Rollback()

	txStmt := tx.StmtContext(ctx, stmt)

	for _, record := range batch {
		_, err := txStmt.ExecContext(ctx,
			record.JobID,
			record.StepID,
			record.Level,
			record.Message,
			record.Attrs,
			record.Timestamp,
		)
		if err != nil {
			fmt.Printf("ERROR: Failed to insert log record: %v\n", err)
		}
	}

	if err := tx.Commit(); err != nil {
		fmt.Printf("ERROR: Failed to commit log batch transaction: %v\n", err)
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func levelToString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// FanoutHandler sends records to multiple handlers.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler creates a handler that fans records out to all handlers.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// Enabled reports whether any of the handlers handle records at the level.
func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (f *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// WithAttrs returns a new fanout handler with the attributes added everywhere.
func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: newHandlers}
}

// WithGroup returns a new fanout handler with the group added everywhere.
func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &FanoutHandler{handlers: newHandlers}
}
