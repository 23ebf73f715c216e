//go:build integration

package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/chemtemplates/internal/config"
	"github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/chemtemplates/pkg/errors"
)

func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "chem",
				"POSTGRES_PASSWORD": "chem",
				"POSTGRES_DB":       "chemtemplates",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	conn, err := postgres.NewConnection(config.PostgresConfig{
		Host: host, Port: port.Int(), User: "chem", Password: "chem", DBName: "chemtemplates",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, postgres.NewMigrator(conn, "", nil).Up())
	return conn
}

func TestIntegration_Repositories(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	templates := NewPostgresTemplateRepo(conn, nil)
	tpl := &repository.TemplateRecord{
		Name:   "lead-like",
		Config: filter.TemplateConfig{PropertyFilters: filter.PropertyFilters{{Name: "TPSA", MaxVal: filter.Float(90)}, {Name: "LogP", MaxVal: filter.Float(5)}}},
	}
	require.NoError(t, templates.Create(ctx, tpl))

	got, err := templates.Get(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Config.PropertyFilters, 2)
	assert.Equal(t, "TPSA", got.Config.PropertyFilters[0].Name, "json columns keep declared filter order")

	stale := *got
	got.Name = "renamed"
	require.NoError(t, templates.Update(ctx, got))
	assert.Equal(t, 2, got.Version)
	assert.True(t, pkgerrors.IsConflict(templates.Update(ctx, &stale)))

	schemas := NewPostgresAssemblySchemaRepo(conn, nil)
	schema := &repository.AssemblySchemaRecord{
		Name:         "pair",
		AssemblyType: assembly.FamilySynthon,
		Schema:       json.RawMessage(`{"name": "p", "node_type": "synthon_node"}`),
	}
	require.NoError(t, schemas.Create(ctx, schema))
	list, err := schemas.List(ctx, repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	jobs := NewPostgresJobRepo(conn, nil)
	job := &repository.EvaluationJob{TemplateID: tpl.ID, Queries: 2, RequestKey: "jobs/1/request.json"}
	require.NoError(t, jobs.Create(ctx, job))
	require.NoError(t, jobs.UpdateStatus(ctx, job.ID, repository.JobSucceeded, "jobs/1/result.json", ""))
	done, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.JobSucceeded, done.Status)
	assert.NotNil(t, done.CompletedAt)

	require.NoError(t, templates.Delete(ctx, tpl.ID))
	assert.True(t, pkgerrors.IsNotFound(templates.Delete(ctx, tpl.ID)))
}

//Personal.AI order the ending
