package generator

import (
	"regexp"
	"strings"
)

// fencePattern matches a whole text wrapped in one code fence with an optional language tag
var fencePattern = regexp.MustCompile("^```[\\w+.#-]*[ \\t]*\\r?\\n(?:([\\s\\S]*?)\\r?\\n)?```$")

// Normalize trims raw generator output and strips one enclosing code fence if present
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)

	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	return strings.TrimSpace(m[1])
}
