package middleware

import "strings"

// matchPattern reports whether path matches an ant-style pattern: "*"
// matches within one path segment, "**" matches zero or more whole
// segments. Exempt-list entries like "/static/**" or "/login" use this.
func matchPattern(pattern, path string) bool {
	return matchSegments(splitPath(pattern), splitPath(path))
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		// "**" may swallow zero or more segments.
		for i := 0; i <= len(path); i++ {
			if matchSegments(pattern[1:], path[i:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if !matchSegment(pattern[0], path[0]) {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

// matchSegment matches one segment against a pattern segment where "*"
// matches any run of characters.
func matchSegment(pattern, segment string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == segment
	}
	if !strings.HasPrefix(segment, parts[0]) {
		return false
	}
	segment = segment[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(segment, part)
		if idx < 0 {
			return false
		}
		segment = segment[idx+len(part):]
	}
	return strings.HasSuffix(segment, parts[len(parts)-1])
}
