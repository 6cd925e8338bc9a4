package mocks

import (
	"sync"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// MockNotifier records the reports it is asked to send.
type MockNotifier struct {
	mu      sync.Mutex
	Started int
	Reports []types.Report
	Closed  bool
}

func (n *MockNotifier) StartNotification() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Started++
}

func (n *MockNotifier) SendNotification(report types.Report) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Reports = append(n.Reports, report)
}

func (n *MockNotifier) AddLogHook() {}

func (n *MockNotifier) GetNames() []string { return []string{"mock"} }

func (n *MockNotifier) GetURLs() []string { return []string{"mock://"} }

func (n *MockNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Closed = true
}

// Sent returns a copy of the reports sent so far.
func (n *MockNotifier) Sent() []types.Report {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]types.Report(nil), n.Reports...)
}
