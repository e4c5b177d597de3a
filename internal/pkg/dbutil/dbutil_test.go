package dbutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM users WHERE email = ? AND id = ?", []interface{}{"a@b.c", "u1"})
	require.Equal(t, "SELECT id FROM users WHERE email = $1 AND id = $2", query)
	require.Equal(t, []interface{}{"a@b.c", "u1"}, args)
}

func TestFinalizeRewritesMySQLLimit(t *testing.T) {
	// gendry emits LIMIT offset, count; Postgres wants LIMIT count OFFSET offset.
	query, args := Finalize("SELECT id FROM documents WHERE user_id = ? LIMIT ?,?", []interface{}{"u1", uint(10), uint(5)})
	require.Equal(t, "SELECT id FROM documents WHERE user_id = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"u1", uint(5), uint(10)}, args)
}

func TestFinalizeLeavesPlainLimitAlone(t *testing.T) {
	query, args := Finalize("SELECT id FROM documents LIMIT ?", []interface{}{uint(5)})
	require.Equal(t, "SELECT id FROM documents LIMIT $1", query)
	require.Equal(t, []interface{}{uint(5)}, args)
}
