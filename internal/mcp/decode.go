package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode binds the tool call arguments to a request struct. A call with no
// arguments yields the zero value.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	if req.GetArguments() == nil {
		return input, nil
	}
	if err := req.BindArguments(&input); err != nil {
		return input, fmt.Errorf("invalid arguments: %w", err)
	}
	return input, nil
}
