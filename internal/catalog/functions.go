package catalog

import (
	"database/sql/driver"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// registerVectorFunctions registers the vec_cosine scalar function with the
// sqlite driver. Registration is process-wide and must happen before any
// connection that uses the function is opened; connections opened earlier
// will not see it.
func registerVectorFunctions() {
	registerOnce.Do(func() {
		// The driver rejects duplicate registration; ignore the error so
		// repeated Open calls stay safe.
		_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
	})
}

func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_cosine: expected 2 arguments, got %d", len(args))
	}
	a, err := argVector(args[0])
	if err != nil {
		return nil, err
	}
	b, err := argVector(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return cosineSimilarity(a, b)
}

func argVector(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return DecodeVector(v)
	default:
		return nil, fmt.Errorf("vec_cosine: unsupported argument type %T, want BLOB", arg)
	}
}

// cosineSimilarity computes the cosine similarity of two vectors in float64
// to avoid accumulation error over long vectors.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vec_cosine: dimension mismatch %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vec_cosine: empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("vec_cosine: zero-magnitude vector")
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}
