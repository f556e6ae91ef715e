package catalog

// Tokenizer selects how an analyzer splits input text into terms before
// filtering (spec §4.1 "full-text index").
type Tokenizer string

const (
	TokenizeBlank     Tokenizer = "blank"
	TokenizeClass     Tokenizer = "class"
	TokenizeCamel     Tokenizer = "camel"
	TokenizePunctuation Tokenizer = "punct"
)

// Filter selects a post-tokenization normalization step.
type Filter string

const (
	FilterLowercase Filter = "lowercase"
	FilterAscii     Filter = "ascii"
	FilterSnowball  Filter = "snowball"
	FilterEdgeNgram Filter = "edgengram"
	FilterNgram     Filter = "ngram"
)

// Analyzer is a DEFINE ANALYZER entry: a tokenizer plus an ordered filter
// pipeline applied to both indexed documents and search queries.
type Analyzer struct {
	Version    uint16
	Namespace  string
	Database   string
	Name       string
	Tokenizers []Tokenizer
	Filters    []Filter
	Comment    string
}

// Revision implements Revisioned.
func (a Analyzer) Revision() uint16 { return a.Version }
