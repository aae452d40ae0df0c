package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/timeline/blobhash"
	"github.com/meigma/timeline/internal/testutil"
	"github.com/meigma/timeline/record"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(context.Background(), args, &stdout, io.Discard)
	return stdout.String(), err
}

func readLines[T any](t *testing.T, data string) []T {
	t.Helper()
	var out []T
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
		out = append(out, v)
	}
	require.NoError(t, scanner.Err())
	return out
}

func recordWithPath(p []byte) record.Record {
	return record.Record{Path: p}
}

func recordPaths(lines []recordLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = filepath.Base(l.Path)
	}
	slices.Sort(out)
	return out
}

func TestRunUsage(t *testing.T) {
	t.Parallel()

	_, err := runCmd(t)
	require.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, "bogus")
	require.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, "help")
	require.NoError(t, err)
}

func TestExportRequiresRootAndTarget(t *testing.T) {
	t.Parallel()

	_, err := runCmd(t, "export", "--out", t.TempDir())
	assert.ErrorContains(t, err, "--root")

	_, err = runCmd(t, "export", "--root", t.TempDir())
	assert.ErrorContains(t, err, "exactly one")

	_, err = runCmd(t, "export", "--root", t.TempDir(), "--out", t.TempDir(), "--oci-layout", t.TempDir())
	assert.ErrorContains(t, err, "exactly one")

	_, err = runCmd(t, "export", "--root", t.TempDir(), "--out", t.TempDir(), "--compression", "brotli")
	assert.Error(t, err)

	_, err = runCmd(t, "export", "--root", t.TempDir(), "--out", t.TempDir(), "--log-level", "loud")
	assert.ErrorContains(t, err, "log level")
}

func TestExportDecodeStore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"a": "1", "sub/": "", "sub/b": "22"})
	store := t.TempDir()
	receipts := filepath.Join(t.TempDir(), "receipts.jsonl")

	_, err := runCmd(t, "export", "--root", root, "--out", store, "--receipts", receipts, "--hash", "blake3", "--compression", "zstd")
	require.NoError(t, err)

	data, err := os.ReadFile(receipts)
	require.NoError(t, err)
	lines := readLines[receiptLine](t, string(data))
	require.Len(t, lines, 1)
	assert.Equal(t, root, lines[0].Root)
	assert.Equal(t, blobhash.BLAKE3, lines[0].Algorithm)
	assert.Equal(t, 3, lines[0].Records)

	out, err := runCmd(t, "decode", "--out", store, "--receipts", receipts)
	require.NoError(t, err)
	records := readLines[recordLine](t, out)
	assert.Equal(t, []string{"a", "b", "sub"}, recordPaths(records))
	for _, r := range records {
		assert.Equal(t, root, r.Root)
		assert.Empty(t, r.PathBytes)
	}
}

func TestExportReceiptsToStdout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"a": "1"})

	out, err := runCmd(t, "export", "--root", root, "--out", t.TempDir())
	require.NoError(t, err)
	lines := readLines[receiptLine](t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, blobhash.SHA256, lines[0].Algorithm)
	assert.False(t, lines[0].Digest.IsZero())
}

func TestDecodeStoreDetectsCorruption(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"a": "1"})
	store := t.TempDir()
	receipts := filepath.Join(t.TempDir(), "receipts.jsonl")

	_, err := runCmd(t, "export", "--root", root, "--out", store, "--receipts", receipts)
	require.NoError(t, err)

	data, err := os.ReadFile(receipts)
	require.NoError(t, err)
	line := readLines[receiptLine](t, string(data))[0]
	var blob string
	require.NoError(t, filepath.WalkDir(store, func(path string, d os.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() && d.Name() == line.Digest.String() {
			blob = path
		}
		return err
	}))
	require.NotEmpty(t, blob)
	require.NoError(t, os.Chmod(blob, 0o600))
	require.NoError(t, os.WriteFile(blob, []byte("garbage"), 0o600))

	_, err = runCmd(t, "decode", "--out", store, "--receipts", receipts)
	require.ErrorIs(t, err, blobhash.ErrMismatch)
}

func TestDecodeRequiresReceipts(t *testing.T) {
	t.Parallel()

	_, err := runCmd(t, "decode", "--out", t.TempDir())
	assert.ErrorContains(t, err, "--receipts")
}

func TestExportDecodeLayout(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	testutil.WriteTree(t, first, map[string]string{"a": "1", "b": "2"})
	testutil.WriteTree(t, second, map[string]string{"c": "3"})
	layout := t.TempDir()

	_, err := runCmd(t, "export",
		"--root", first, "--root", second,
		"--oci-layout", layout, "--tag", "v1",
		"--compression", "lz4", "--parallel", "2")
	require.NoError(t, err)

	out, err := runCmd(t, "decode", "--oci-layout", layout, "--tag", "v1-0")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, recordPaths(readLines[recordLine](t, out)))

	out, err = runCmd(t, "decode", "--oci-layout", layout, "--tag", "v1-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, recordPaths(readLines[recordLine](t, out)))

	_, err = runCmd(t, "decode", "--oci-layout", layout, "--tag", "v1")
	assert.Error(t, err)
}

func TestRootTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v1", rootTag("v1", 0, 1))
	assert.Equal(t, "v1-0", rootTag("v1", 0, 2))
	assert.Equal(t, "v1-1", rootTag("v1", 1, 2))
}

func TestNewRecordLineKeepsInvalidPathBytes(t *testing.T) {
	t.Parallel()

	l := newRecordLine("", recordWithPath([]byte{'a', 0xff}))
	assert.Equal(t, []byte{'a', 0xff}, l.PathBytes)

	l = newRecordLine("", recordWithPath([]byte("ok")))
	assert.Nil(t, l.PathBytes)
	assert.Equal(t, "ok", l.Path)
}

func TestResolveTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v2", resolveTag("v2", "v1"))
	assert.Equal(t, "v1", resolveTag("", "v1"))
	assert.Equal(t, "latest", resolveTag("", ""))
}

func TestOCITargetUsesRegistryReferenceTag(t *testing.T) {
	t.Parallel()

	_, tag, err := ociTarget(options{Registry: "localhost:5000/timeline/host:v1", Anonymous: true})
	require.NoError(t, err)
	assert.Equal(t, "v1", tag)

	_, tag, err = ociTarget(options{Registry: "localhost:5000/timeline/host:v1", Tag: "v2", Anonymous: true})
	require.NoError(t, err)
	assert.Equal(t, "v2", tag)

	_, tag, err = ociTarget(options{Registry: "localhost:5000/timeline/host", Anonymous: true})
	require.NoError(t, err)
	assert.Equal(t, "latest", tag)

	_, tag, err = ociTarget(options{OCILayout: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "latest", tag)
}

func TestExportRejectsDigestReference(t *testing.T) {
	t.Parallel()

	ref := "localhost:5000/timeline/host@sha256:" + strings.Repeat("a", 64)
	_, err := runCmd(t, "export", "--root", t.TempDir(), "--registry", ref, "--anonymous")
	assert.ErrorContains(t, err, "digest")
}
