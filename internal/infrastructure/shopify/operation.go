package shopify

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation describes the first operation of a GraphQL document
type Operation struct {
	Kind string
	Name string
}

// DescribeOperation parses a document and returns its first operation.
// Documents that do not parse are rejected before any network call.
func DescribeOperation(query string) (*Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "admin", Input: query})
	if err != nil {
		return nil, fmt.Errorf("invalid GraphQL document: %w", err)
	}
	if len(doc.Operations) == 0 {
		return nil, fmt.Errorf("invalid GraphQL document: no operation")
	}

	op := doc.Operations[0]
	kind := string(op.Operation)
	if kind == "" {
		kind = string(ast.Query)
	}
	return &Operation{Kind: kind, Name: op.Name}, nil
}
