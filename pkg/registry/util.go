package registry

import "fmt"

// stringify renders a non-string substitution value the way fmt does, for
// template parameters that arrive as numbers or bools.
func stringify(v any) string {
	return fmt.Sprint(v)
}
