package oci

import (
	"context"
	"fmt"
	"net/http"

	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/memory"
	ocilayout "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const defaultUserAgent = "timeline/1.0"

// NewMemory returns an in-memory target.
func NewMemory() oras.Target {
	return memory.New()
}

// NewLayout returns a target backed by an OCI image layout directory,
// creating it if needed.
func NewLayout(dir string) (oras.Target, error) {
	store, err := ocilayout.New(dir)
	if err != nil {
		return nil, fmt.Errorf("open oci layout %q: %w", dir, err)
	}
	return store, nil
}

type remoteConfig struct {
	plainHTTP bool
	anonymous bool
	userAgent string
	credStore credentials.Store
}

// RemoteOption configures NewRemote.
type RemoteOption func(*remoteConfig)

// WithPlainHTTP talks to the registry over HTTP instead of HTTPS.
func WithPlainHTTP(plain bool) RemoteOption {
	return func(c *remoteConfig) {
		c.plainHTTP = plain
	}
}

// WithCredentials sets the credential store. By default credentials come
// from the Docker config and its credential helpers.
func WithCredentials(store credentials.Store) RemoteOption {
	return func(c *remoteConfig) {
		c.credStore = store
	}
}

// WithAnonymous skips credential lookup entirely.
func WithAnonymous() RemoteOption {
	return func(c *remoteConfig) {
		c.anonymous = true
	}
}

// WithUserAgent sets the User-Agent header sent to the registry.
func WithUserAgent(ua string) RemoteOption {
	return func(c *remoteConfig) {
		c.userAgent = ua
	}
}

// NewRemote returns the registry repository named by ref
// ("registry/repository[:tag]"). The tag, if any, is available from
// Reference.Reference on the result.
func NewRemote(ref string, opts ...RemoteOption) (*remote.Repository, error) {
	cfg := remoteConfig{userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}

	if !cfg.anonymous && cfg.credStore == nil {
		cfg.credStore, err = DefaultCredentialStore()
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
	}

	repo.PlainHTTP = cfg.plainHTTP
	repo.Client = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if cfg.anonymous {
				return auth.EmptyCredential, nil
			}
			return cfg.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{cfg.userAgent},
		},
	}
	return repo, nil
}
