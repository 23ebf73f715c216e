package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/chemtemplates/pkg/errors"
)

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFiles, "migrations/*.down.sql")
	require.NoError(t, err)

	require.Len(t, ups, 3)
	require.Len(t, downs, len(ups))
	for i, up := range ups {
		assert.Equal(t, strings.TrimSuffix(up, ".up.sql"), strings.TrimSuffix(downs[i], ".down.sql"))
	}
}

func TestEmbeddedMigrations_Source(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestEmbeddedMigrations_Tables(t *testing.T) {
	cases := []struct {
		file      string
		table     string
		versioned bool
	}{
		{"migrations/000001_create_filter_templates.up.sql", "filter_templates", true},
		{"migrations/000002_create_assembly_schemas.up.sql", "assembly_schemas", true},
		{"migrations/000003_create_evaluation_jobs.up.sql", "evaluation_jobs", false},
	}
	for _, tc := range cases {
		body, err := migrationFiles.ReadFile(tc.file)
		require.NoError(t, err)
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+tc.table)
		if tc.versioned {
			assert.Contains(t, string(body), "version", "%s needs a version column", tc.table)
		}
	}
}

func TestMigrator_DownRejectsNonPositiveSteps(t *testing.T) {
	m := NewMigrator(nil, "", nil)
	err := m.Down(0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrCodeBadRequest, pkgerrors.GetCode(err))
}

//Personal.AI order the ending
