// Package iocache is for persisting repository metrics and run history.
package iocache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/will-wright-eng/social-signals/internal/contract"
)

// StoreManagerImpl owns the metrics and run stores for one process.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during close
	metrics      contract.MetricsStore
	runs         contract.RunStore
	closeOnce    sync.Once
	closeErr     error
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// NewStoreManager wraps already opened stores.
func NewStoreManager(metrics contract.MetricsStore, runs contract.RunStore) *StoreManagerImpl {
	return &StoreManagerImpl{metrics: metrics, runs: runs}
}

// OpenStores opens the metrics store and the run store described by cfg.
func OpenStores(ctx context.Context, cfg *contract.Config, opts ...MetricsStoreOption) (*StoreManagerImpl, error) {
	metrics, err := NewMetricsStore(ctx, cfg.DBBackend, cfg.DBConnect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics store: %w", err)
	}

	runs, err := NewRunStore(ctx, cfg.RunsBackend, cfg.RunsConnect)
	if err != nil {
		_ = metrics.Close()
		return nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	return NewStoreManager(metrics, runs), nil
}

// GetMetricsStore returns the metrics store.
func (mgr *StoreManagerImpl) GetMetricsStore() contract.MetricsStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.metrics
}

// GetRunStore returns the run store.
func (mgr *StoreManagerImpl) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

// Close closes both stores. Repeated calls return the first result.
func (mgr *StoreManagerImpl) Close() error {
	mgr.closeOnce.Do(func() {
		mgr.Lock()
		defer mgr.Unlock()
		var errs []error
		if mgr.metrics != nil {
			errs = append(errs, mgr.metrics.Close())
		}
		if mgr.runs != nil {
			errs = append(errs, mgr.runs.Close())
		}
		mgr.closeErr = errors.Join(errs...)
	})
	return mgr.closeErr
}
