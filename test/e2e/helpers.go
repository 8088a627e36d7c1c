//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cloo-solutions/stylechat/internal/api/handlers"
	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/loader"
	"github.com/cloo-solutions/stylechat/internal/repository"
	"github.com/cloo-solutions/stylechat/internal/server"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/cloo-solutions/stylechat/internal/storage"
	"github.com/cloo-solutions/stylechat/internal/testutil"
)

const apiToken = "sc_e2e_token"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Source     *storage.S3Source
	Store      *repository.PostgresStore
	Chat       *testutil.EchoChat
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupE2EEnv starts pgvector and S3 containers and serves the API against them.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	if err := repository.MigratePostgres(pgC.ConnectionString()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	pool := testutil.NewTestPool(ctx, t, pgC)

	src, err := storage.NewS3Source(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "knowledge",
		Prefix:          "e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 source: %v", err)
	}
	if err := src.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	store := repository.NewPostgresStore(pool, "e2e")
	embedder := testutil.NewHashEmbedder(1024)
	chat := &testutil.EchoChat{}

	indexer := service.NewIndexer(loader.New(src), nil, embedder, store)
	retriever := service.NewRetriever(embedder, store, service.DefaultTopK)
	turns := service.NewChatService(retriever, chat, domain.StyleProfile{Text: "Short sentences."}, 3)

	var mu sync.RWMutex
	router := server.NewRouter(server.RouterConfig{
		APIToken:     apiToken,
		ChatHandler:  handlers.NewChatHandler(retriever, turns, domain.DefaultPersona, service.DefaultTopK, &mu),
		IndexHandler: handlers.NewIndexHandler(indexer, &mu),
	})

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Source:     src,
		Store:      store,
		Chat:       chat,
		Server:     httptest.NewServer(router),
		HTTPClient: &http.Client{},
	}
	t.Cleanup(env.Cleanup)
	return env
}

// Cleanup stops the server and the containers
func (e *E2ETestEnv) Cleanup() {
	e.Server.Close()
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Upload stores a knowledge file in the bucket
func (e *E2ETestEnv) Upload(name, content string) {
	if err := e.Source.PutObject(e.Ctx, name, []byte(content)); err != nil {
		e.T.Fatalf("failed to upload %s: %v", name, err)
	}
}

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// Post performs a POST request and returns the status code and envelope
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (int, *APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body, authToken)
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (int, *APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (int, *APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return resp.StatusCode, &apiResp, nil
}
