package project

import (
	"strings"

	"github.com/google/uuid"
)

// LegacyPrefix marks identifiers issued by the old computer API. They no
// longer resolve to a project and are always treated as stale.
const LegacyPrefix = "computer-"

// SentinelNew is reported by the provider when a freshly created project has
// not been assigned an identifier yet.
const SentinelNew = "new"

// Kind is the classification of a candidate project identifier.
type Kind int

const (
	Absent Kind = iota
	Legacy
	Sentinel
	ValidUUID
	Other
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Legacy:
		return "legacy"
	case Sentinel:
		return "sentinel_new"
	case ValidUUID:
		return "valid_uuid"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Stale reports whether an identifier of this kind was persisted at some
// point but can no longer be reused.
func (k Kind) Stale() bool {
	return k == Legacy || k == Sentinel
}

// Classify sorts an identifier into one of the known kinds. It never fails.
func Classify(id string) Kind {
	switch {
	case id == "":
		return Absent
	case id == SentinelNew:
		return Sentinel
	case strings.HasPrefix(id, LegacyPrefix):
		return Legacy
	case isCanonicalUUID(id):
		return ValidUUID
	default:
		return Other
	}
}

// IsUsable reports whether id may be handed to the provider for reattachment.
// Unrecognized formats are accepted; only known stale forms are rejected.
func IsUsable(id string) bool {
	k := Classify(id)
	return k == ValidUUID || k == Other
}

// isCanonicalUUID accepts only the 8-4-4-4-12 hex form. uuid.Parse alone
// also accepts braces, urn: prefixes and undashed hex, so length and dash
// positions are checked first.
func isCanonicalUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	if id[8] != '-' || id[13] != '-' || id[18] != '-' || id[23] != '-' {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
