//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/meigma/timeline"
	"github.com/meigma/timeline/chunked"
	"github.com/meigma/timeline/internal/testutil"
	"github.com/meigma/timeline/record"
	"github.com/meigma/timeline/sink/oci"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
// The container is shared across all tests for performance.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})

	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}

	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	// Container cleanup is handled by the testcontainers reaper.

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// --- Repository Helpers ---

// testRepo returns a unique repository reference for a test.
func testRepo(registryAddr, testName string) string {
	return fmt.Sprintf("%s/test/%s", registryAddr, testName)
}

// newTestRepo opens a repository on the local test registry.
func newTestRepo(tb testing.TB, ref string) *remote.Repository {
	tb.Helper()
	repo, err := oci.NewRemote(ref, oci.WithPlainHTTP(true), oci.WithAnonymous())
	require.NoError(tb, err, "open repository")
	return repo
}

// --- Test Data Helpers ---

// nestedTree contains nested directories.
var nestedTree = map[string]string{
	"root.txt":          "root file",
	"dir1/a.txt":        "file a in dir1",
	"dir1/b.txt":        "file b in dir1",
	"dir1/sub/c.txt":    "file c in dir1/sub",
	"dir2/x.txt":        "file x in dir2",
	"dir2/deep/y.txt":   "file y in dir2/deep",
	"dir2/deep/z.txt":   "file z in dir2/deep",
	"empty/placeholder": "",
}

// treePaths lists every path WriteTree creates for files, directories
// included, relative to the root.
func treePaths(files map[string]string) []string {
	seen := make(map[string]bool)
	for name := range files {
		for p := name; p != "." && p != ""; p = filepath.ToSlash(filepath.Dir(p)) {
			seen[p] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// exportToRegistry exports root to ref and tags the manifest.
func exportToRegistry(tb testing.TB, root, ref, tag string, opts ...timeline.Option) (timeline.Stats, []timeline.Receipt) {
	tb.Helper()

	ctx := context.Background()
	dst := oci.New(newTestRepo(tb, ref))
	replies := testutil.NewRecorder[timeline.Receipt]()
	stats, err := timeline.Export(ctx, root, dst, replies, opts...)
	require.NoError(tb, err, "export")
	_, err = dst.Finish(ctx, tag)
	require.NoError(tb, err, "finish")
	return stats, replies.Replies()
}

// pullRecords fetches and decodes every batch of ref:tag.
func pullRecords(tb testing.TB, ref, tag string) []record.Record {
	tb.Helper()

	ctx := context.Background()
	repo := newTestRepo(tb, ref)
	layers, err := oci.Batches(ctx, repo, tag)
	require.NoError(tb, err, "resolve batches")

	var blobs [][]byte
	for data, err := range oci.Blobs(ctx, repo, layers) {
		require.NoError(tb, err, "fetch blob")
		blobs = append(blobs, data)
	}

	var out []record.Record
	for r, err := range chunked.Decode[record.Record](slices.Values(blobs)) {
		require.NoError(tb, err, "decode")
		out = append(out, r)
	}
	return out
}

// relPaths returns the sorted record paths relative to root.
func relPaths(tb testing.TB, root string, recs []record.Record) []string {
	tb.Helper()
	out := make([]string, len(recs))
	for i, r := range recs {
		rel, err := filepath.Rel(root, string(r.Path))
		require.NoError(tb, err)
		out[i] = filepath.ToSlash(rel)
	}
	slices.Sort(out)
	return out
}
