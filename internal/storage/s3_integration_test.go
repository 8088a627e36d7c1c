//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/cloo-solutions/stylechat/internal/loader"
	"github.com/cloo-solutions/stylechat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Source_ServesLoaderDocuments(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	src, err := NewS3Source(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "knowledge",
		Prefix:          "docs",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, src.EnsureBucket(ctx))

	require.NoError(t, src.PutObject(ctx, "faq.txt", []byte("Opening hours are nine to five.")))
	require.NoError(t, src.PutObject(ctx, "sub/manual.txt", []byte("Press the red button.")))
	require.NoError(t, src.PutObject(ctx, "image.png", []byte{0x89, 0x50}))

	l := loader.New(src)
	names, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"faq.txt", "sub/manual.txt"}, names)

	doc := l.Load(ctx, "faq.txt")
	assert.Equal(t, "Opening hours are nine to five.", doc.Text)
}
