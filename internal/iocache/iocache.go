// Package iocache persists coverwatch run history in SQL databases.
package iocache

import (
	"fmt"
	"sync"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// HistoryStoreManager owns the history store of one process.
// It is constructed explicitly and closed by whoever created it.
type HistoryStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	history      contract.HistoryStore
	closeOnce    sync.Once
}

var _ contract.HistoryManager = &HistoryStoreManager{} // Compile-time check

// NewHistoryStoreManager returns a manager without a store; call InitStores before use.
func NewHistoryStoreManager() *HistoryStoreManager {
	return &HistoryStoreManager{}
}

// GetHistoryStore returns the run history store.
func (mgr *HistoryStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// InitStores opens the history store for the backend. An empty backend leaves tracking disabled.
func (mgr *HistoryStoreManager) InitStores(backend schema.DatabaseBackend, connStr string) error {
	if backend == "" {
		return nil
	}
	store, err := NewHistoryStore(backend, connStr)
	if err != nil {
		return fmt.Errorf("failed to initialize history store: %w", err)
	}

	mgr.Lock()
	defer mgr.Unlock()
	if mgr.history != nil {
		_ = mgr.history.Close()
	}
	mgr.history = store
	return nil
}

// CloseStores closes the history store. Later calls are no-ops.
func (mgr *HistoryStoreManager) CloseStores() {
	mgr.closeOnce.Do(func() {
		mgr.Lock()
		defer mgr.Unlock()
		if mgr.history != nil {
			_ = mgr.history.Close()
		}
	})
}
