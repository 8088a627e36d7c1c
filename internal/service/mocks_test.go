package service

import (
	"context"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingProvider mocks the embedding service
type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingProvider) ModelName() string {
	return "test-embed"
}

// MockChatProvider mocks the chat model
type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) GenerateReply(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	args := m.Called(ctx, messages)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockChatProvider) ModelName() string {
	return "test-chat"
}

// MockVectorStore mocks a vector store
type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) Collection() string {
	return "test"
}

func (m *MockVectorStore) Prune(ctx context.Context, keep []string) (int, error) {
	args := m.Called(ctx, keep)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorStore) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	// copy: the indexer reuses its batch buffer
	cp := make([]domain.EmbeddingRecord, len(records))
	copy(cp, records)
	args := m.Called(ctx, cp)
	return args.Error(0)
}

func (m *MockVectorStore) Query(ctx context.Context, model string, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, model, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func (m *MockVectorStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorStore) Drop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRetriever mocks the retrieval step of a turn
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string) (*Retrieval, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Retrieval), args.Error(1)
}

// fakeLoader serves documents from memory.
type fakeLoader struct {
	docs map[string]string
}

func (f *fakeLoader) List(ctx context.Context) ([]string, error) {
	paths := make([]string, 0, len(f.docs))
	for p := range f.docs {
		paths = append(paths, p)
	}
	return paths, nil
}

func (f *fakeLoader) Load(ctx context.Context, path string) domain.Document {
	return domain.Document{Path: path, Text: f.docs[path]}
}
