package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseOptionsDefaults(t *testing.T) {
	t.Parallel()

	fs, flags := newExportFlags(io.Discard)
	opts, err := parseOptions(fs, []string{"--root", "/r"}, flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"/r"}, opts.Roots)
	assert.Equal(t, "gzip", opts.Compression)
	assert.Equal(t, "sha256", opts.Hash)
	assert.Equal(t, 1, opts.Parallel)
	assert.Empty(t, opts.Tag)
}

func TestParseOptionsConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
roots: [/a, /b]
out: /store
compression: zstd
hash: blake3
batch_size: 4096
parallel: 4
file_flags: true
`)
	fs, flags := newExportFlags(io.Discard)
	opts, err := parseOptions(fs, []string{"--config", path, "--compression", "lz4"}, flags)
	require.NoError(t, err)

	assert.Equal(t, []string{"/a", "/b"}, opts.Roots)
	assert.Equal(t, "/store", opts.Out)
	assert.Equal(t, "lz4", opts.Compression, "flag overrides file")
	assert.Equal(t, "blake3", opts.Hash)
	assert.Equal(t, 4096, opts.BatchSize)
	assert.Equal(t, 4, opts.Parallel)
	assert.True(t, opts.FileFlags)
	assert.Equal(t, "info", opts.LogLevel, "unset keys keep defaults")
}

func TestParseOptionsRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "compresion: zstd\n")
	fs, flags := newExportFlags(io.Discard)
	_, err := parseOptions(fs, []string{"--config", path}, flags)
	assert.ErrorContains(t, err, "compresion")
}

func TestParseOptionsEmptyConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "")
	fs, flags := newExportFlags(io.Discard)
	opts, err := parseOptions(fs, []string{"--config", path}, flags)
	require.NoError(t, err)
	assert.Equal(t, defaultOptions(), opts)
}

func TestParseOptionsMissingConfig(t *testing.T) {
	t.Parallel()

	fs, flags := newExportFlags(io.Discard)
	_, err := parseOptions(fs, []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, flags)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseOptionsRejectsArgs(t *testing.T) {
	t.Parallel()

	fs, flags := newExportFlags(io.Discard)
	_, err := parseOptions(fs, []string{"extra"}, flags)
	assert.ErrorContains(t, err, "unexpected argument")
}
