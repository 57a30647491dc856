package matchmaking

import (
	"context"
	"sync"
)

// MockNotifier is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type MockNotifier struct {
	mu sync.Mutex

	RequestCreatedCalls  []RequestEvent
	RequestAcceptedCalls []RequestEvent
	RequestRejectedCalls []RequestEvent

	// Err is returned from every call when set.
	Err error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) RequestCreated(ctx context.Context, event RequestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCreatedCalls = append(m.RequestCreatedCalls, event)
	return m.Err
}

func (m *MockNotifier) RequestAccepted(ctx context.Context, event RequestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestAcceptedCalls = append(m.RequestAcceptedCalls, event)
	return m.Err
}

func (m *MockNotifier) RequestRejected(ctx context.Context, event RequestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestRejectedCalls = append(m.RequestRejectedCalls, event)
	return m.Err
}

// Created returns a copy of the recorded "request created" events.
func (m *MockNotifier) Created() []RequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestEvent(nil), m.RequestCreatedCalls...)
}

// Accepted returns a copy of the recorded "request accepted" events.
func (m *MockNotifier) Accepted() []RequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestEvent(nil), m.RequestAcceptedCalls...)
}

// Rejected returns a copy of the recorded "request rejected" events.
func (m *MockNotifier) Rejected() []RequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestEvent(nil), m.RequestRejectedCalls...)
}

// MockDirectory resolves names from in-memory maps.
type MockDirectory struct {
	Users  map[string]string
	Skills map[string]string
}

// NewMockDirectory creates a new mock directory with no known names.
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{Users: map[string]string{}, Skills: map[string]string{}}
}

func (d *MockDirectory) UserName(ctx context.Context, userID string) string {
	if name, ok := d.Users[userID]; ok {
		return name
	}
	return PlaceholderUserName
}

func (d *MockDirectory) SkillName(ctx context.Context, skillID string) string {
	if name, ok := d.Skills[skillID]; ok {
		return name
	}
	return PlaceholderSkillName
}
