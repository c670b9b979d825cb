package store

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
)

// recentCapacity bounds the in-memory history served by Recent
const recentCapacity = 200

// QueryLog buffers query records and writes them in batches, when the buffer
// reaches flushSize or every flushInterval, whichever comes first
type QueryLog struct {
	records   []QueryRecord
	recent    []QueryRecord
	mu        sync.Mutex
	flushMu   sync.Mutex
	flushSize int
	flushTime time.Duration
	sink      func([]QueryRecord) error
	stopChan  chan bool
	done      chan struct{}
}

// GormSink writes batches through gorm
func GormSink(db *gorm.DB) func([]QueryRecord) error {
	return func(records []QueryRecord) error {
		return db.CreateInBatches(records, 100).Error
	}
}

// NewQueryLog starts the periodic flush. A nil sink keeps records in memory
// only.
func NewQueryLog(flushSize int, flushInterval time.Duration, sink func([]QueryRecord) error) *QueryLog {
	if flushSize <= 0 {
		flushSize = 50
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}
	ql := &QueryLog{
		records:   make([]QueryRecord, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		sink:      sink,
		stopChan:  make(chan bool),
		done:      make(chan struct{}),
	}

	go ql.autoFlush()

	log.Printf("✅ Query log started (flushSize: %d, flushInterval: %v)\n", flushSize, flushInterval)
	return ql
}

func (ql *QueryLog) autoFlush() {
	defer close(ql.done)

	ticker := time.NewTicker(ql.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ql.Flush()
		case <-ql.stopChan:
			ql.Flush()
			return
		}
	}
}

// Add buffers a record, flushing right away once the buffer is full
func (ql *QueryLog) Add(rec QueryRecord) {
	ql.mu.Lock()
	ql.records = append(ql.records, rec)
	ql.recent = append(ql.recent, rec)
	if len(ql.recent) > recentCapacity {
		ql.recent = ql.recent[len(ql.recent)-recentCapacity:]
	}
	size := len(ql.records)
	ql.mu.Unlock()

	if size >= ql.flushSize {
		go ql.Flush()
	}
}

// Flush writes every buffered record
func (ql *QueryLog) Flush() {
	ql.flushMu.Lock()
	defer ql.flushMu.Unlock()

	ql.mu.Lock()
	if len(ql.records) == 0 {
		ql.mu.Unlock()
		return
	}
	toSave := make([]QueryRecord, len(ql.records))
	copy(toSave, ql.records)
	ql.records = ql.records[:0]
	ql.mu.Unlock()

	if ql.sink == nil {
		return
	}
	if err := ql.sink(toSave); err != nil {
		log.Printf("❌ Failed to save %d query records: %v\n", len(toSave), err)
		return
	}
	log.Printf("💾 Saved %d query records\n", len(toSave))
}

// Pending is the number of records not flushed yet
func (ql *QueryLog) Pending() int {
	ql.mu.Lock()
	defer ql.mu.Unlock()
	return len(ql.records)
}

// Recent returns up to limit of the newest records, newest first
func (ql *QueryLog) Recent(limit int) []QueryRecord {
	ql.mu.Lock()
	defer ql.mu.Unlock()

	if limit <= 0 || limit > len(ql.recent) {
		limit = len(ql.recent)
	}
	out := make([]QueryRecord, 0, limit)
	for i := len(ql.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, ql.recent[i])
	}
	return out
}

// Stop flushes what is left and ends the periodic flush
func (ql *QueryLog) Stop() {
	ql.stopChan <- true
	<-ql.done
}
