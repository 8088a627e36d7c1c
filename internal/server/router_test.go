package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cloo-solutions/stylechat/internal/api/handlers"
	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "sc_test_token"

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) RetrieveK(ctx context.Context, query string, k int) (*service.Retrieval, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Retrieval), args.Error(1)
}

type MockTurnService struct {
	mock.Mock
}

func (m *MockTurnService) Turn(ctx context.Context, conv domain.Conversation, input string) (domain.Conversation, *service.TurnResult, error) {
	args := m.Called(ctx, conv, input)
	if args.Get(1) == nil {
		return conv, nil, args.Error(2)
	}
	return args.Get(0).(domain.Conversation), args.Get(1).(*service.TurnResult), args.Error(2)
}

type MockRebuilder struct {
	mock.Mock
}

func (m *MockRebuilder) Rebuild(ctx context.Context) (*domain.IndexStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexStats), args.Error(1)
}

func setupRouter(token string) (http.Handler, *MockSearcher, *MockTurnService, *MockRebuilder) {
	searcher := new(MockSearcher)
	turns := new(MockTurnService)
	rebuilder := new(MockRebuilder)
	mu := &sync.RWMutex{}

	router := NewRouter(RouterConfig{
		APIToken:     token,
		ChatHandler:  handlers.NewChatHandler(searcher, turns, domain.DefaultPersona, 5, mu),
		IndexHandler: handlers.NewIndexHandler(rebuilder, mu),
	})
	return router, searcher, turns, rebuilder
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _ := setupRouter(testToken)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, _, _, _ := setupRouter(testToken)

	for _, path := range []string{"/search", "/chat", "/index/rebuild"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_Search_WithValidAuth(t *testing.T) {
	router, searcher, _, _ := setupRouter(testToken)
	searcher.On("RetrieveK", mock.Anything, "alpha", 5).Return(&service.Retrieval{Sources: []string{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{"query":"alpha"}`)))
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	searcher.AssertExpectations(t)
}

func TestRouter_NoTokenConfigured_Open(t *testing.T) {
	router, _, _, rebuilder := setupRouter("")
	rebuilder.On("Rebuild", mock.Anything).Return(&domain.IndexStats{Files: 1}, nil)

	req := httptest.NewRequest(http.MethodPost, "/index/rebuild", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	rebuilder.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _, _, _ := setupRouter("")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/knowledge", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
