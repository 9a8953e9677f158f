package hub

import (
	"strings"
)

// A Space identifies one remote Space repository owned by an account.
type Space struct {
	Owner string
	Name  string
}

// ID returns the full owner/name identifier used by the Hub API.
func (s Space) ID() string {
	return s.Owner + "/" + s.Name
}

// ParseSpaceID splits a full "owner/name" identifier. Identifiers without a
// slash are treated as having an empty owner, which matches how the Hub
// reports legacy un-namespaced repositories.
func ParseSpaceID(id string) Space {
	if owner, name, ok := strings.Cut(id, "/"); ok {
		return Space{Owner: owner, Name: name}
	}
	return Space{Name: id}
}

// LFSInfo describes the large-file storage pointer behind a tree entry.
type LFSInfo struct {
	// OID is the sha256 of the actual file contents.
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

// A TreeEntry is one path in a Space's current file listing.
type TreeEntry struct {
	// Type is "file" or "directory".
	Type string `json:"type"`

	// OID is the git blob id of the entry. For LFS entries it identifies
	// the pointer file, not the contents -- use LFS.OID instead.
	OID string `json:"oid"`

	Size int64  `json:"size"`
	Path string `json:"path"`

	LFS *LFSInfo `json:"lfs,omitempty"`
}
