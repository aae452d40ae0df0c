//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/errdef"

	"github.com/meigma/timeline"
	"github.com/meigma/timeline/internal/testutil"
	"github.com/meigma/timeline/sink/oci"
)

// --- Error Scenarios ---

func TestError_NotFound(t *testing.T) {
	t.Parallel()

	registryAddr := getRegistry(t)
	repo := newTestRepo(t, testRepo(registryAddr, "nonexistent-timeline-12345"))

	_, err := oci.Batches(context.Background(), repo, "latest")
	require.Error(t, err)
	assert.ErrorIs(t, err, errdef.ErrNotFound)
}

func TestError_InvalidReference(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"not-a-valid-ref", "://missing-scheme", ""} {
		t.Run(ref, func(t *testing.T) {
			t.Parallel()
			_, err := oci.NewRemote(ref, oci.WithAnonymous())
			assert.Error(t, err)
		})
	}
}

func TestError_CanceledExport(t *testing.T) {
	t.Parallel()

	registryAddr := getRegistry(t)
	root := t.TempDir()
	testutil.WriteTree(t, root, nestedTree)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst := oci.New(newTestRepo(t, testRepo(registryAddr, "canceled")))
	_, err := timeline.Export(ctx, root, dst, testutil.NewRecorder[timeline.Receipt]())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, dst.Layers())
}
