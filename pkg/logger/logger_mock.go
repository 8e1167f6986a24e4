package logger

import (
	"fmt"
	"sync"
)

// MockLogger records every call so tests can assert on what was logged.
type MockLogger struct {
	mu            sync.Mutex
	MethodsToCall map[string]bool
	Entries       []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		MethodsToCall: make(map[string]bool),
	}
}

func (m *MockLogger) record(method, entry string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MethodsToCall[method] = true
	m.Entries = append(m.Entries, entry)
}

func (m *MockLogger) Debugf(format string, args ...any) {
	m.record("Debugf", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Debug(args ...any) {
	m.record("Debug", fmt.Sprint(args...))
}

func (m *MockLogger) Logf(format string, args ...any) {
	m.record("Logf", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Log(data string) {
	m.record("Log", data)
}

func (m *MockLogger) Info(msg string) {
	m.record("Info", msg)
}

func (m *MockLogger) Errorf(format string, args ...any) {
	m.record("Errorf", fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(args ...any) {
	m.record("Error", fmt.Sprint(args...))
}

func (m *MockLogger) Sync() error {
	m.record("Sync", "")
	return nil
}

func (m *MockLogger) Called(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MethodsToCall[method]
}

// Lines returns a copy of everything logged so far.
func (m *MockLogger) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Entries...)
}
