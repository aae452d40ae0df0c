package oci

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/registry/remote/auth"
)

func TestStaticCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := StaticCredentials("https://registry.example.com/v2/", "user", "pass")

	cred, err := store.Get(ctx, "registry.example.com")
	require.NoError(t, err)
	assert.Equal(t, "user", cred.Username)
	assert.Equal(t, "pass", cred.Password)

	cred, err = store.Get(ctx, "other.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)

	assert.Error(t, store.Put(ctx, "registry.example.com", auth.Credential{}))
	assert.Error(t, store.Delete(ctx, "registry.example.com"))
}

func TestStaticToken(t *testing.T) {
	t.Parallel()

	cred, err := StaticToken("localhost:5000", "tok").Get(context.Background(), "localhost:5000")
	require.NoError(t, err)
	assert.Equal(t, "tok", cred.AccessToken)
	assert.Empty(t, cred.Username)
}

func TestStaticCredentialsDockerHubAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		store, query string
		match        bool
	}{
		{store: "docker.io", query: "registry-1.docker.io", match: true},
		{store: "index.docker.io", query: "docker.io:443", match: true},
		{store: "docker.io", query: "ghcr.io", match: false},
	}
	for _, tt := range tests {
		t.Run(tt.store+"->"+tt.query, func(t *testing.T) {
			t.Parallel()
			cred, err := StaticCredentials(tt.store, "u", "p").Get(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.match, cred.Username == "u")
		})
	}
}

// mapStore is an in-memory credentials.Store.
type mapStore map[string]auth.Credential

func (m mapStore) Get(_ context.Context, addr string) (auth.Credential, error) {
	return m[addr], nil
}

func (m mapStore) Put(_ context.Context, addr string, cred auth.Credential) error {
	m[addr] = cred
	return nil
}

func (m mapStore) Delete(_ context.Context, addr string) error {
	delete(m, addr)
	return nil
}

func TestDockerHubStoreFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := mapStore{"https://index.docker.io/v1/": {Username: "hub"}}
	store := &dockerHubStore{store: inner}

	cred, err := store.Get(ctx, "registry-1.docker.io")
	require.NoError(t, err)
	assert.Equal(t, "hub", cred.Username)

	cred, err = store.Get(ctx, "ghcr.io")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)

	require.NoError(t, store.Put(ctx, "ghcr.io", auth.Credential{Username: "gh"}))
	cred, err = store.Get(ctx, "ghcr.io")
	require.NoError(t, err)
	assert.Equal(t, "gh", cred.Username)
	require.NoError(t, store.Delete(ctx, "ghcr.io"))
}

func TestServerHost(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"registry.example.com":                      "registry.example.com",
		"https://registry.example.com:5000/v2/repo": "registry.example.com:5000",
		"http://localhost:5000/v2/":                 "localhost:5000",
	}
	for in, want := range tests {
		assert.Equal(t, want, serverHost(in), in)
	}
	assert.Equal(t, "[::1]", hostOnly("[::1]:8080"))
	assert.Equal(t, "localhost", hostOnly("localhost:5000"))
}

func TestNewRemote(t *testing.T) {
	t.Parallel()

	repo, err := NewRemote("localhost:5000/timeline/run:v1", WithAnonymous(), WithPlainHTTP(true))
	require.NoError(t, err)
	assert.True(t, repo.PlainHTTP)
	assert.Equal(t, "v1", repo.Reference.Reference)
	assert.Equal(t, "timeline/run", repo.Reference.Repository)

	_, err = NewRemote("not a reference", WithAnonymous())
	assert.Error(t, err)
}
