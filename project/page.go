package project

import "strings"

// Markers the page template must contain.
const (
	HeadClose = "</head>"
	BodyClose = "</body>"
)

// InjectBefore inserts snippet in front of the first occurrence of marker.
// The page is returned unchanged when the marker is missing.
func InjectBefore(page string, marker string, snippet string) string {
	i := strings.Index(page, marker)
	if i < 0 {
		return page
	}
	return page[:i] + snippet + page[i:]
}
