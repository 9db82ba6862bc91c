package graphql

import "context"

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Client defines the interface for executing GraphQL queries.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

// Connection decodes the paginated {page:{edges:[{node}]}} wrapper the API
// puts around list results.
type Connection[T any] struct {
	Page struct {
		Edges []struct {
			Node T `json:"node"`
		} `json:"edges"`
	} `json:"page"`
}

// Nodes flattens the edges into a slice in server order. The result is never
// nil.
func (c Connection[T]) Nodes() []T {
	nodes := make([]T, 0, len(c.Page.Edges))
	for _, e := range c.Page.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

// NullableString returns nil for an empty string so optional variables such
// as teamId are sent as JSON null rather than "".
func NullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
