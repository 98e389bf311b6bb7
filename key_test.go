package nanogit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKey_String(t *testing.T) {
	fp := Fingerprint{Head: "ref: refs/heads/main", Index: "abc", Worktree: 1, Refs: 2}

	keys := []QueryKey{
		{Kind: QueryStatus, Fingerprint: fp},
		{Kind: QueryDiff, Param: "head:", Fingerprint: fp},
		{Kind: QueryDiff, Param: "head:a", Fingerprint: fp},
		{Kind: QueryDiff, Param: "head:a", Fingerprint: Fingerprint{Head: fp.Head, Index: fp.Index, Worktree: 1, Refs: 2, Mutation: 1}},
		{Kind: QueryLog, Param: "HEAD", Fingerprint: fp},
		// Quoting keeps separators inside fields from colliding.
		{Kind: QueryLog, Param: `HEAD" "x`, Fingerprint: fp},
	}

	seen := make(map[string]QueryKey)
	for _, k := range keys {
		s := k.String()
		if prev, ok := seen[s]; ok {
			t.Fatalf("keys %+v and %+v both render %q", prev, k, s)
		}
		seen[s] = k
	}
}

func TestQueryKind_String(t *testing.T) {
	assert.Equal(t, "status", QueryStatus.String())
	assert.Equal(t, "diff", QueryDiff.String())
	assert.Equal(t, "branches", QueryBranches.String())
	assert.Equal(t, "log", QueryLog.String())
	assert.Equal(t, "query(9)", QueryKind(9).String())
}

func TestAffects(t *testing.T) {
	pred := affects(QueryStatus, QueryDiff)

	assert.True(t, pred(QueryKey{Kind: QueryStatus}))
	assert.True(t, pred(QueryKey{Kind: QueryDiff, Param: "staged:"}))
	assert.False(t, pred(QueryKey{Kind: QueryBranches}))
	assert.False(t, pred(QueryKey{Kind: QueryLog}))
	assert.False(t, affects()(QueryKey{Kind: QueryStatus}))
}
