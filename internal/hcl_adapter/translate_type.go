// This file contains the logic for parsing the `type` keyword of parameter
// and output blocks.

package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// parseValueType converts a bare `int` or `float` keyword into a value type.
// Quoted strings are rejected so that types read like HCL type keywords.
func parseValueType(expr hcl.Expression) (factorgraph.ValueType, error) {
	if expr == nil {
		return 0, fmt.Errorf("type must be set")
	}
	keyword := hcl.ExprAsKeyword(expr)
	if keyword == "" {
		return 0, fmt.Errorf("type must be the keyword int or float, at %s", expr.Range())
	}
	return factorgraph.ParseValueType(keyword)
}
