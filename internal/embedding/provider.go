package embedding

import "context"

// Dimension is the length of the vectors produced by the provider. It must
// match catalog.EmbeddingDim; both mirror the text-embedding-3-small output.
const Dimension = 1536

// Provider is the external embedding capability the search engine depends
// on: turning text into a vector, and turning an image (by URL) into a
// natural-language caption that is then embedded through the same text path.
type Provider interface {
	// EmbedText returns a Dimension-length vector for the given text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// DescribeImage returns a descriptive caption for the image at the
	// given URL, suitable as input to EmbedText.
	DescribeImage(ctx context.Context, imageURL string) (string, error)
}
