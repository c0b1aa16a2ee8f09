package events

import (
	"context"
	"freight-tariff-service/testutil"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := testutil.Migrate(); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	os.Exit(m.Run())
}

func TestPgSinkAppendsHistory(t *testing.T) {
	tx := testutil.NewTx(t)
	ctx := context.Background()
	sink := NewPgSink(tx)

	ev := newEvent("started")
	require.NoError(t, sink.Publish(ctx, ev))

	noLeg := newEvent("completed")
	noLeg.ShipmentID = ev.ShipmentID
	noLeg.LegID = nil
	noLeg.OccurredAt = ev.OccurredAt.Add(time.Minute)
	require.NoError(t, sink.Publish(ctx, noLeg))

	rows, err := tx.Query(ctx, `
		SELECT state FROM tracking_events WHERE shipment_id = @id ORDER BY occurred_at`,
		pgx.NamedArgs{"id": ev.ShipmentID})
	require.NoError(t, err)
	states, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)

	assert.Equal(t, []string{"started", "completed"}, states)
}
