package proposal

import "strings"

// genericInfrastructure is the blocklist of segment substrings spec.md
// §4.5 names: a candidate whose path contains any of these, in any
// segment, case-insensitively, is rejected outright regardless of score.
var genericInfrastructure = []string{
	"logging", "config", "utils", "helpers", "common",
	"base", "abstract", "interface", "setup", "init",
}

func matchesGenericInfrastructure(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		lower := strings.ToLower(segment)
		for _, blocked := range genericInfrastructure {
			if strings.Contains(lower, blocked) {
				return true
			}
		}
	}
	return false
}

func segmentSet(path string) map[string]bool {
	segments := strings.Split(path, "/")
	set := make(map[string]bool, len(segments))
	for _, s := range segments {
		set[s] = true
	}
	return set
}

// jaccard computes the Jaccard similarity of two segment sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for s := range a {
		if b[s] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
