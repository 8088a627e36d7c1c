package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPool_InvalidURL(t *testing.T) {
	pool, err := NewPool(context.Background(), Config{URL: "://not a url"})

	assert.Nil(t, pool)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database config")
}
