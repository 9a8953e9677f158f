package sync

import (
	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
)

// Included decides whether a space is in scope given the include and
// exclude pattern lists. A pattern matches either the bare space name or
// the full owner/name id. A space is in scope iff the include list is empty
// or some include pattern matches, and no exclude pattern matches --
// exclusion always wins.
func Included(space hub.Space, include, exclude []string) bool {
	for _, pattern := range exclude {
		if matchesSpace(space, pattern) {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if matchesSpace(space, pattern) {
			return true
		}
	}
	return false
}

func matchesSpace(space hub.Space, pattern string) bool {
	return pattern == space.Name || pattern == space.ID()
}
