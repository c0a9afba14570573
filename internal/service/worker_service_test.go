package service

import (
	"context"
	"testing"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.workers.ConfigureServices(ctx, "w1", WorkerProfile{Services: []string{"mechanic"}})
	require.ErrorIs(t, err, workflow.ErrValidation, "a new worker needs a name")
	_, err = f.workers.ConfigureServices(ctx, "w1", WorkerProfile{DisplayName: "Taller", Services: []string{"plumber"}})
	require.ErrorIs(t, err, workflow.ErrValidation)
	_, err = f.workers.ConfigureServices(ctx, "", WorkerProfile{DisplayName: "Taller"})
	require.ErrorIs(t, err, workflow.ErrAuthorization)

	w, err := f.workers.ConfigureServices(ctx, "w1", WorkerProfile{
		DisplayName: " Taller Rápido ",
		Zone:        "Chacao",
		Services:    []string{"Mechanic", "crane", "mechanic"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Taller Rápido", w.DisplayName)
	assert.ElementsMatch(t, []workflow.ServiceType{workflow.ServiceMechanic, workflow.ServiceCrane}, w.ServiceTypes())

	w, err = f.workers.ConfigureServices(ctx, "w1", WorkerProfile{Services: []string{"parts"}})
	require.NoError(t, err)
	assert.Equal(t, "Taller Rápido", w.DisplayName, "blank fields keep the stored profile")
	assert.Equal(t, "Chacao", w.Zone)
	assert.Equal(t, []workflow.ServiceType{workflow.ServiceParts}, w.ServiceTypes())
}

func TestServiceTypesReadThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.worker(t, "w1", "crane")

	types, err := f.workers.ServiceTypes(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, []workflow.ServiceType{workflow.ServiceCrane}, types)
	assert.Equal(t, 0, f.cache.hits)

	_, err = f.workers.ServiceTypes(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)

	f.worker(t, "w1", "mechanic")
	assert.Contains(t, f.cache.invalidated, "w1")
	types, err = f.workers.ServiceTypes(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, []workflow.ServiceType{workflow.ServiceMechanic}, types, "reconfiguring drops the cached set")
}

func TestListWorkersByServiceType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.worker(t, "w1", "mechanic", "crane")
	f.worker(t, "w2", "crane")
	f.worker(t, "w3", "parts")

	all, err := f.workers.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cranes, err := f.workers.List(ctx, "crane")
	require.NoError(t, err)
	uids := []string{}
	for _, w := range cranes {
		uids = append(uids, w.UID)
	}
	assert.ElementsMatch(t, []string{"w1", "w2"}, uids)

	_, err = f.workers.List(ctx, "boat")
	require.ErrorIs(t, err, workflow.ErrValidation)

	_, err = f.workers.Get(ctx, "nobody")
	require.ErrorIs(t, err, workflow.ErrNotFound)
}
