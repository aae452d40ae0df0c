// Package oci provides a sink that stores exported batches as OCI blobs.
//
// Each batch is pushed as a blob to an oras.Target: an in-memory store, an
// OCI image layout directory, or a remote registry repository. Finish packs
// an OCI 1.1 manifest listing the batches in export order and tags it, so
// the whole export can be fetched by a single reference.
package oci

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/errdef"

	"github.com/meigma/timeline/sink"
)

// Sink pushes batches to an oras.Target. It is safe for concurrent use,
// but layer order follows the order in which Send calls complete.
type Sink struct {
	target      oras.Target
	annotations map[string]string
	logger      *slog.Logger

	mu     sync.Mutex
	layers []ocispec.Descriptor
}

var _ sink.Sink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithAnnotations adds manifest annotations written by Finish.
func WithAnnotations(annotations map[string]string) Option {
	return func(s *Sink) {
		maps.Copy(s.annotations, annotations)
	}
}

// WithLogger sets the logger for push diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// New returns a sink that pushes to target.
func New(target oras.Target, opts ...Option) *Sink {
	s := &Sink{
		target:      target,
		annotations: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send pushes data as a blob. Blobs already present in the target are not
// pushed again but still become a layer of the manifest.
func (s *Sink) Send(ctx context.Context, kind sink.Kind, data []byte) error {
	if err := sink.Check(kind); err != nil {
		return err
	}

	desc := ocispec.Descriptor{
		MediaType: batchMediaType(data),
		Digest:    digest.FromBytes(data),
		Size:      int64(len(data)),
	}
	if err := s.target.Push(ctx, desc, bytes.NewReader(data)); err != nil {
		if !errors.Is(err, errdef.ErrAlreadyExists) {
			return fmt.Errorf("push blob %s: %w", desc.Digest, err)
		}
		s.log().Debug("blob already exists", "digest", desc.Digest)
	}

	s.mu.Lock()
	desc.Annotations = map[string]string{
		AnnotationSequence: strconv.Itoa(len(s.layers)),
	}
	s.layers = append(s.layers, desc)
	s.mu.Unlock()

	s.log().Debug("blob pushed", "digest", desc.Digest, "size", desc.Size, "media_type", desc.MediaType)
	return nil
}

// Layers returns the descriptors of the batches sent so far, in order.
func (s *Sink) Layers() []ocispec.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ocispec.Descriptor(nil), s.layers...)
}

// Finish packs a manifest over every batch sent so far and, if tag is not
// empty, tags it. It returns the manifest descriptor.
func (s *Sink) Finish(ctx context.Context, tag string) (ocispec.Descriptor, error) {
	annotations := maps.Clone(s.annotations)
	if _, ok := annotations[ocispec.AnnotationCreated]; !ok {
		annotations[ocispec.AnnotationCreated] = time.Now().UTC().Format(time.RFC3339)
	}

	layers := s.Layers()
	desc, err := oras.PackManifest(ctx, s.target, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              layers,
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("pack manifest: %w", err)
	}

	if tag != "" {
		if err := s.target.Tag(ctx, desc, tag); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	s.log().Info("manifest pushed", "digest", desc.Digest, "tag", tag, "layers", len(layers))
	return desc, nil
}

func (s *Sink) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}
