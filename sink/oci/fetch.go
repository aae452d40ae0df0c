package oci

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
)

// Batches resolves ref in target and returns the batch layers of its
// manifest in export order.
func Batches(ctx context.Context, target oras.ReadOnlyTarget, ref string) ([]ocispec.Descriptor, error) {
	desc, err := target.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", ref, err)
	}
	data, err := content.FetchAll(ctx, target, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("unexpected artifact type %q", manifest.ArtifactType)
	}

	layers := make([]ocispec.Descriptor, 0, len(manifest.Layers))
	for _, l := range manifest.Layers {
		if strings.HasPrefix(l.MediaType, MediaTypeBatch) {
			layers = append(layers, l)
		}
	}
	return layers, nil
}

// Blobs fetches the given layers in order. Content is verified against
// each descriptor's digest and size. The sequence stops at the first error.
func Blobs(ctx context.Context, target oras.ReadOnlyTarget, layers []ocispec.Descriptor) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, l := range layers {
			data, err := content.FetchAll(ctx, target, l)
			if err != nil {
				yield(nil, fmt.Errorf("fetch blob %s: %w", l.Digest, err))
				return
			}
			if !yield(data, nil) {
				return
			}
		}
	}
}
