package history

import (
	"context"
	"sync"

	"github.com/sokinpui/revise/model"
)

// Memory is a Backend that lives as long as the process.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]model.VersionNode
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]model.VersionNode)}
}

func (m *Memory) Append(_ context.Context, node model.VersionNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[node.FileID] = append(m.files[node.FileID], node)
	return nil
}

func (m *Memory) List(_ context.Context, fileID string, page Page) ([]model.VersionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nodes := m.files[fileID]
	var out []model.VersionNode
	for i := len(nodes) - 1 - page.Offset; i >= 0; i-- {
		if page.Limit > 0 && len(out) == page.Limit {
			break
		}
		out = append(out, nodes[i])
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, fileID, versionID string) (model.VersionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, n := range m.files[fileID] {
		if n.ID == versionID {
			return n, nil
		}
	}
	return model.VersionNode{}, model.ErrNotFound
}

func (m *Memory) Close() error { return nil }
