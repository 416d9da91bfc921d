package reconcile

import (
	"context"
	"io"
	"sync"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
	"github.com/nvrbrth/nvrbrth-backend1/internal/ledger"
	"github.com/nvrbrth/nvrbrth-backend1/internal/payment"
)

// MockProcessor implements payment.Processor for testing
type MockProcessor struct {
	Session      *payment.Session
	LineItems    []payment.LineItem
	LineItemsErr error
	CreateCalls  int
	ListCalls    int
}

func (m *MockProcessor) CreateSession(_ context.Context, _ *payment.SessionParams) (*payment.Session, error) {
	m.CreateCalls++
	return m.Session, nil
}

func (m *MockProcessor) SessionLineItems(_ context.Context, _ string) ([]payment.LineItem, error) {
	m.ListCalls++
	if m.LineItemsErr != nil {
		return nil, m.LineItemsErr
	}
	return m.LineItems, nil
}

func (m *MockProcessor) VerifyEvent(_ []byte, _ string) (*payment.Event, error) {
	return nil, nil
}

// MemoryLedger implements ledger.Ledger over a map
type MemoryLedger struct {
	mu      sync.Mutex
	Records map[string]*domain.OrderRecord
	Err     error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{Records: make(map[string]*domain.OrderRecord)}
}

func (m *MemoryLedger) Record(_ context.Context, rec *domain.OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, exists := m.Records[rec.SessionID]; exists {
		return ledger.ErrDuplicateSession
	}
	m.Records[rec.SessionID] = rec
	return nil
}

func (m *MemoryLedger) Get(_ context.Context, sessionID string) (*domain.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.Records[sessionID]
	if !exists {
		return nil, ledger.ErrOrderNotFound
	}
	return rec, nil
}

func (m *MemoryLedger) ExportJournal(_ context.Context, _ io.Writer) error {
	return nil
}

func (m *MemoryLedger) Close() error {
	return nil
}

// MockSender implements mail.Sender and captures sends
type MockSender struct {
	Sent []sentMail
	Err  error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *MockSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// MemoryDeadLetter captures published failures
type MemoryDeadLetter struct {
	Failures []Failure
}

func (m *MemoryDeadLetter) Publish(_ context.Context, f Failure) error {
	m.Failures = append(m.Failures, f)
	return nil
}

func (m *MemoryDeadLetter) Stages() []string {
	var stages []string
	for _, f := range m.Failures {
		stages = append(stages, f.Stage)
	}
	return stages
}
