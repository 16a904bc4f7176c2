package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Mock is an in-memory FileUploader for testing. It is safe for concurrent
// use.
type Mock struct {
	mu sync.Mutex

	BaseURL string
	Objects map[string][]byte
	Types   map[string]string

	UploadFunc func(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	DeleteCalls []string
}

// NewMock creates a new mock instance serving URLs under baseURL.
func NewMock(baseURL string) *Mock {
	return &Mock{
		BaseURL: baseURL,
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (m *Mock) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	m.mu.Lock()
	fn := m.UploadFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, key, contentType, reader)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	m.Types[key] = contentType
	return &UploadResult{Key: key, Location: PublicURL(m.BaseURL, key), ETag: fmt.Sprintf("%x", len(data))}, nil
}

func (m *Mock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, key)
	delete(m.Objects, key)
	return nil
}

func (m *Mock) GetPublicURL(key string) string {
	return PublicURL(m.BaseURL, key)
}

// Object returns the stored bytes for key.
func (m *Mock) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Objects[key]
	return b, ok
}
