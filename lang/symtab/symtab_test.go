package symtab_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/symtab"
)

func TestSetAndGet(t *testing.T) {
	tbl := symtab.New()
	tbl.PushScope(0)
	require.True(t, tbl.Set("x", 1, 0))

	e, ok := tbl.GetExactScope("x", 0)
	require.True(t, ok)
	require.Equal(t, 1, e.Index)
}

func TestGlobalDuplicateRejected(t *testing.T) {
	tbl := symtab.New()
	tbl.PushScope(0)
	require.True(t, tbl.Set("x", 1, 0))
	require.False(t, tbl.Set("x", 2, 0))
}

func TestShadowingAtDeeperScopeAllowed(t *testing.T) {
	tbl := symtab.New()
	tbl.PushScope(0)
	tbl.Set("x", 1, 0)
	tbl.PushScope(1)
	require.True(t, tbl.Set("x", 2, 1))

	e, ok := tbl.GetInScope("x", 1)
	require.True(t, ok)
	require.Equal(t, 2, e.Index)

	tbl.PopScope()
	e, ok = tbl.GetInScope("x", 0)
	require.True(t, ok)
	require.Equal(t, 1, e.Index)
}

func TestPopScopeRemovesUnreachableEntries(t *testing.T) {
	tbl := symtab.New()
	tbl.PushScope(0)
	tbl.Set("a", 0, 0)
	tbl.PushScope(1)
	tbl.Set("b", 1, 1)
	tbl.PopScope()

	_, ok := tbl.GetExactScope("b", 1)
	require.False(t, ok)
	_, ok = tbl.GetExactScope("a", 0)
	require.True(t, ok)
}

func TestPopScopeKeepsEntriesStillReachable(t *testing.T) {
	// Two sibling scopes both recorded at the same depth via re-entry
	// (e.g. two sequential if-blocks): popping one must not evict entries
	// that belong to the other still-active occurrence of that depth.
	tbl := symtab.New()
	tbl.PushScope(0)
	tbl.PushScope(1)
	tbl.PushScope(1)
	tbl.Set("c", 0, 1)
	tbl.PopScope()

	_, ok := tbl.GetExactScope("c", 1)
	require.True(t, ok, "entry at a depth still active on the scope stack must survive")
}

func TestRehashPreservesEntries(t *testing.T) {
	tbl := symtab.New()
	tbl.PushScope(0)
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("v%d", i)
		require.True(t, tbl.Set(name, i, 0))
	}
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("v%d", i)
		e, ok := tbl.GetExactScope(name, 0)
		require.True(t, ok)
		require.Equal(t, i, e.Index)
	}
}

func TestGetInScopePicksGreatestReachableDepth(t *testing.T) {
	tbl := symtab.New()
	tbl.PushScope(0)
	tbl.Set("x", 0, 0)
	tbl.PushScope(1)
	tbl.PushScope(2)
	tbl.Set("x", 2, 2)

	e, ok := tbl.GetInScope("x", 2)
	require.True(t, ok)
	require.Equal(t, 2, e.Index)

	e, ok = tbl.GetInScope("x", 1)
	require.True(t, ok)
	require.Equal(t, 0, e.Index)
}
