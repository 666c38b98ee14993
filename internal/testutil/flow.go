package testutil

// FixedRequestIDGenerator returns the same request id every time.
//
// Repair reports embed their request id. A fixed id makes the same scenario
// produce byte-identical reports for golden snapshot comparison.
//
// Thread-safety: FixedRequestIDGenerator is stateless and safe for concurrent use.
type FixedRequestIDGenerator struct {
	id string
}

// NewFixedRequestIDGenerator creates a generator. An empty id falls back
// to "test-request-default".
func NewFixedRequestIDGenerator(id string) *FixedRequestIDGenerator {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedRequestIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements engine.RequestIDGenerator.
func (g *FixedRequestIDGenerator) Generate() string {
	return g.id
}
