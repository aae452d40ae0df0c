package oci

import "github.com/meigma/timeline/chunked"

// Media types for exported timelines in OCI registries.
const (
	// ArtifactType identifies an exported timeline as an OCI 1.1 artifact.
	ArtifactType = "application/vnd.meigma.timeline.v1"

	// MediaTypeBatch is the media type prefix of one batch layer. The
	// batch compression is appended as a structured suffix.
	MediaTypeBatch = "application/vnd.meigma.timeline.batch.v1"

	// AnnotationSequence holds the 0-based index of a batch layer.
	AnnotationSequence = "dev.meigma.timeline.sequence"
)

// batchMediaType returns the layer media type for a compressed batch.
func batchMediaType(data []byte) string {
	c, err := chunked.Detect(data)
	if err != nil {
		return MediaTypeBatch
	}
	return MediaTypeBatch + "+" + c.String()
}
