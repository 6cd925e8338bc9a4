// Package mocks provides test doubles for the container runtime and notifications.
package mocks

import (
	"context"
	"sync"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// MockClient is a container.Client returning a fixed inventory.
type MockClient struct {
	mu        sync.Mutex
	Items     []types.InventoryItem
	Err       error
	Version   string
	ListCalls int
}

// NewMockClient creates a client listing items.
func NewMockClient(items ...types.InventoryItem) *MockClient {
	return &MockClient{Items: items, Version: "1.44"}
}

// ListContainers returns the items accepted by filter, or Err.
func (c *MockClient) ListContainers(_ context.Context, filter types.Filter) ([]types.InventoryItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ListCalls++

	if c.Err != nil {
		return nil, c.Err
	}

	items := make([]types.InventoryItem, 0, len(c.Items))

	for _, item := range c.Items {
		if filter == nil || filter(item) {
			items = append(items, item)
		}
	}

	return items, nil
}

// GetVersion returns the configured API version.
func (c *MockClient) GetVersion() string {
	return c.Version
}

// Calls returns how many times ListContainers ran.
func (c *MockClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ListCalls
}
