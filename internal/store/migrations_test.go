package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_OrderedFromVersionOne(t *testing.T) {
	require.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.SQL)
	}
}

func TestMigrations_InitialSchemaCreatesLayoutGroupTables(t *testing.T) {
	stmts := splitStatements(migrationLayoutGroups)
	require.NotEmpty(t, stmts)

	joined := strings.Join(stmts, "\n")
	assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS layout_groups")
	assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS layout_group_revisions")
}

func TestSplitStatements_DropsCommentOnlyFragments(t *testing.T) {
	script := `-- header comment;
CREATE TABLE a (id TEXT);
-- trailing comment
CREATE INDEX idx_a ON a(id);
-- only a comment here
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasSuffix(stmts[0], "CREATE TABLE a (id TEXT)"))
	assert.Contains(t, stmts[1], "CREATE INDEX idx_a")
}
