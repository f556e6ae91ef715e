package catalog

import "github.com/syssam/veloxdb/value"

// IndexKind distinguishes the physical structure backing an index (spec
// §4.2 "secondary indexes": B-tree, full-text, and vector).
type IndexKind uint8

const (
	IndexBTree IndexKind = iota
	IndexFullText
	IndexVector
)

// VectorMetric selects the distance function a vector index compares by.
type VectorMetric uint8

const (
	VectorEuclidean VectorMetric = iota
	VectorCosine
	VectorManhattan
	VectorDot
)

// VectorParams configures an IndexVector (spec §4.1 "KNN"): the
// dimensionality every indexed vector must match, the distance metric, and
// the HNSW graph construction parameters.
type VectorParams struct {
	Dimension  int
	Metric     VectorMetric
	M          int // HNSW max connections per node
	EFConstruct int
}

// FullTextParams configures an IndexFullText: which analyzer tokenizes
// indexed text, and whether BM25 scoring is enabled for MATCHES ranking.
type FullTextParams struct {
	Analyzer string
	BM25     bool
	BM25K1   float64
	BM25B    float64
}

// Index is a DEFINE INDEX entry.
type Index struct {
	Version   uint16
	Namespace string
	Database  string
	Table     string
	Name      string
	Kind      IndexKind
	Fields    []value.Idiom
	Unique    bool
	Comment   string
	FullText  *FullTextParams // set only when Kind == IndexFullText
	Vector    *VectorParams   // set only when Kind == IndexVector
}

// Revision implements Revisioned.
func (i Index) Revision() uint16 { return i.Version }
