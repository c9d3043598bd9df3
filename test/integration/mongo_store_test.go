//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/NordCoder/SiteStatus/internal/repository/mongodb"
	checker "github.com/NordCoder/SiteStatus/internal/services/status-checker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongo_ReconcileUpsert(t *testing.T) {
	uri := getenv("IT_MONGO_URI", "")
	if uri == "" {
		t.Skip("IT_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, mongodb.Config{URI: uri, Database: "sitestatus_it"})
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	coll := "it_" + RandSuffix()
	db := client.Database("sitestatus_it")
	defer func() { _ = db.Collection(coll).Drop(context.Background()) }()

	rec := checker.NewReconciler(mongodb.NewStatusRepo(db, coll), nil)
	exp := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Millisecond)

	ack, err := rec.Reconcile(ctx, result("example.com", 200, &exp))
	require.NoError(t, err)
	assert.Equal(t, status.ActionInserted, ack.Action)

	ack, err = rec.Reconcile(ctx, result("example.com", 404, nil))
	require.NoError(t, err)
	assert.Equal(t, status.ActionUpdated, ack.Action)

	rows, err := rec.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 404, rows[0].Status)
	assert.Nil(t, rows[0].SSLExpiry)

	require.NoError(t, rec.Truncate(ctx))
	rows, err = rec.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
