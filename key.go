package nanogit

import (
	"fmt"
	"slices"
)

// QueryKind is the closed set of cacheable queries.
type QueryKind uint8

const (
	QueryStatus QueryKind = iota + 1
	QueryDiff
	QueryBranches
	QueryLog
)

func (k QueryKind) String() string {
	switch k {
	case QueryStatus:
		return "status"
	case QueryDiff:
		return "diff"
	case QueryBranches:
		return "branches"
	case QueryLog:
		return "log"
	default:
		return fmt.Sprintf("query(%d)", uint8(k))
	}
}

// QueryKey identifies one cacheable computation. Param is the canonical form
// of the query parameters. Keys that differ only in Fingerprint are distinct
// entries.
type QueryKey struct {
	Kind        QueryKind
	Param       string
	Fingerprint Fingerprint
}

// String renders the key unambiguously.
func (k QueryKey) String() string {
	return fmt.Sprintf("%s %q %s", k.Kind, k.Param, k.Fingerprint)
}

// affects returns a predicate matching keys of the given kinds.
func affects(kinds ...QueryKind) func(QueryKey) bool {
	return func(k QueryKey) bool {
		return slices.Contains(kinds, k.Kind)
	}
}
