package trainer

import "strings"

// LabelFromFilename returns the part of name before the first delim. A name
// without delim is its own label.
func LabelFromFilename(name, delim string) string {
	label, _, _ := strings.Cut(name, delim)
	return label
}
