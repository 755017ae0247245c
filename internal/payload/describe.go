package payload

import "fmt"

// Describe returns a short human-readable shape label, e.g. "table(120x5)".
func Describe(p Payload) string {
	switch d := p.(type) {
	case *Table:
		return fmt.Sprintf("table(%dx%d)", d.Len(), len(d.Columns))
	case Object:
		return fmt.Sprintf("object(%d keys)", len(d))
	case List:
		return fmt.Sprintf("list(%d items)", len(d))
	case Text:
		return fmt.Sprintf("text(%d bytes)", len(d))
	default:
		return "unknown"
	}
}
