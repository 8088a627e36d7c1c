package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/cloo-solutions/stylechat/internal/api"
	"github.com/cloo-solutions/stylechat/internal/domain"
)

type Rebuilder interface {
	Rebuild(ctx context.Context) (*domain.IndexStats, error)
}

type IndexHandler struct {
	indexer Rebuilder
	mu      *sync.RWMutex
}

func NewIndexHandler(indexer Rebuilder, mu *sync.RWMutex) *IndexHandler {
	if mu == nil {
		mu = &sync.RWMutex{}
	}
	return &IndexHandler{indexer: indexer, mu: mu}
}

// Rebuild drops the collection and indexes it again. Reads wait until the
// rebuild finishes.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	stats, err := h.indexer.Rebuild(r.Context())
	h.mu.Unlock()
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}
