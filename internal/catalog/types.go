package catalog

// EmbeddingDim is the dimensionality of the stored vectors. Both the text
// and image vectors of a product must have exactly this length; inserts
// with a different length are rejected before anything hits the index.
const EmbeddingDim = 1536

// VectorIndex selects which of the two vector columns a search runs against.
type VectorIndex string

const (
	// IndexText searches the vectors derived from product name + description.
	IndexText VectorIndex = "by_text_embedding"
	// IndexImage searches the vectors derived from product image captions.
	IndexImage VectorIndex = "by_image_embedding"
)

// Category is a normalized product category.
type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description"`
}

// Product is a catalog product. CategoryName is populated from the joined
// category row on reads; it is not a column of the products table.
type Product struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Brand        string  `db:"brand" json:"brand"`
	Description  string  `db:"description" json:"description"`
	Price        float64 `db:"price" json:"price"`
	CategoryID   string  `db:"category_id" json:"categoryId"`
	CategoryName string  `db:"category_name" json:"categoryName"`
	ImageURL     string  `db:"image_url" json:"imageUrl"`
	EmbeddingID  string  `db:"embedding_id" json:"embeddingId"`
	CreatedAt    int64   `db:"created_at" json:"createdAt"` // unix milliseconds
}

// ProductInput carries everything needed to ingest a product together with
// its embedding record.
type ProductInput struct {
	Name           string
	Brand          string
	Description    string
	Price          float64
	CategoryID     string
	ImageURL       string
	TextEmbedding  []float32
	ImageEmbedding []float32
}

// Candidate is a nearest-neighbor hit: the embedding record id plus its
// similarity score. Higher scores are better.
type Candidate struct {
	EmbeddingID string  `db:"id"`
	Score       float64 `db:"score"`
}
