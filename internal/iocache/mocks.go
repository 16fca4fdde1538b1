package iocache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetMetricsStore implements the StoreManager interface.
func (m *MockStoreManager) GetMetricsStore() contract.MetricsStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.MetricsStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockMetricsStore is a mock implementation of MetricsStore for testing.
type MockMetricsStore struct {
	mock.Mock
}

var _ contract.MetricsStore = &MockMetricsStore{} // Compile-time check

// GetByPath implements the MetricsStore interface.
func (m *MockMetricsStore) GetByPath(ctx context.Context, path string) (schema.MetricsRecord, bool, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(schema.MetricsRecord), args.Bool(1), args.Error(2)
}

// Upsert implements the MetricsStore interface.
func (m *MockMetricsStore) Upsert(ctx context.Context, path string, record schema.MetricsRecord) (schema.MetricsRecord, error) {
	args := m.Called(ctx, path, record)
	return args.Get(0).(schema.MetricsRecord), args.Error(1)
}

// ListAll implements the MetricsStore interface.
func (m *MockMetricsStore) ListAll(ctx context.Context, field schema.SortField, limit int) ([]schema.MetricsRecord, error) {
	args := m.Called(ctx, field, limit)
	records, _ := args.Get(0).([]schema.MetricsRecord)
	return records, args.Error(1)
}

// Remove implements the MetricsStore interface.
func (m *MockMetricsStore) Remove(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

// ClearAll implements the MetricsStore interface.
func (m *MockMetricsStore) ClearAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// GetStatus implements the MetricsStore interface.
func (m *MockMetricsStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Vacuum implements the MetricsStore interface.
func (m *MockMetricsStore) Vacuum(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Close implements the MetricsStore interface.
func (m *MockMetricsStore) Close() error {
	return m.Called().Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(ctx context.Context, startTime time.Time, configParams map[string]any) (string, error) {
	args := m.Called(ctx, startTime, configParams)
	return args.String(0), args.Error(1)
}

// RecordPath implements the RunStore interface.
func (m *MockRunStore) RecordPath(ctx context.Context, record schema.RunPathRecord) error {
	return m.Called(ctx, record).Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(ctx context.Context, runID string, endTime time.Time, succeeded, failed int) error {
	return m.Called(ctx, runID, endTime, succeeded, failed).Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus(ctx context.Context) (schema.RunStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns(ctx context.Context) ([]schema.RunRecord, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllRunPaths implements the RunStore interface.
func (m *MockRunStore) GetAllRunPaths(ctx context.Context) ([]schema.RunPathRecord, error) {
	args := m.Called(ctx)
	paths, _ := args.Get(0).([]schema.RunPathRecord)
	return paths, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	return m.Called().Error(0)
}
