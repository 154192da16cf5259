package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/panel-keeper/internal/model"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, result *model.RunResult) error
	LastResult     *model.RunResult
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error  error
	Result *model.RunResult
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, result *model.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastResult = result

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, result)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Result: result,
		Error:  err,
	})

	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return err from every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *model.RunResult) error {
		return err
	}
}
