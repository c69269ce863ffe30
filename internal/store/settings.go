package store

import (
	"context"
	"log"
	"sync"
	"time"
)

// Setting keys used by the editor.
const (
	KeyTabsSnapshot = "tabs.snapshot"
	KeyVariables    = "variables"
)

// Settings is the best-effort key-value gateway. Implementations log
// failures and never surface them.
type Settings interface {
	GetSetting(key string) (string, bool)
	SetSetting(key, value string)
	DeleteSetting(key string)
}

// DBSettings adapts a DB to Settings. Writes go through the DB's request
// loop when Async is set, so callers only wait when the queue is full.
type DBSettings struct {
	DB      *DB
	Async   bool
	Timeout time.Duration
}

// NewSettings wraps db. Set async when db.Start is running.
func NewSettings(db *DB, async bool) *DBSettings {
	return &DBSettings{DB: db, Async: async, Timeout: 5 * time.Second}
}

func (s *DBSettings) ctx() (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.Timeout)
}

func (s *DBSettings) GetSetting(key string) (string, bool) {
	ctx, cancel := s.ctx()
	defer cancel()

	value, ok, err := s.DB.GetSetting(ctx, key)
	if err != nil {
		log.Printf("Store Error: %v", err)
		return "", false
	}
	return value, ok
}

func (s *DBSettings) SetSetting(key, value string) {
	ctx, cancel := s.ctx()
	defer cancel()

	if s.Async {
		// queued writes keep their order; never write around the queue
		select {
		case s.DB.RequestChan <- Request{Op: SaveSetting, Key: key, Value: value}:
		case <-ctx.Done():
			log.Printf("Store Error: queue full, dropped write of %s", key)
		}
		return
	}
	if err := s.DB.SetSetting(ctx, key, value); err != nil {
		log.Printf("Store Error: %v", err)
	}
}

func (s *DBSettings) DeleteSetting(key string) {
	ctx, cancel := s.ctx()
	defer cancel()

	if s.Async {
		select {
		case s.DB.RequestChan <- Request{Op: DeleteSetting, Key: key}:
		case <-ctx.Done():
			log.Printf("Store Error: queue full, dropped delete of %s", key)
		}
		return
	}
	if err := s.DB.DeleteSetting(ctx, key); err != nil {
		log.Printf("Store Error: %v", err)
	}
}

// Memory is an in-process Settings.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) GetSetting(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) SetSetting(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *Memory) DeleteSetting(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}
