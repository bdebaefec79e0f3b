package realtime

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Change events travel over a single postgres channel so every
// application instance sees writes made by its peers.
const notifyChannel = "row_changes"

// Broker bridges the in-process Hub and postgres LISTEN/NOTIFY.
// Services publish through the broker after a commit; the listen loop
// feeds received notifications back into the hub, which keeps a single
// delivery path whether the write happened here or elsewhere.
type Broker struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	hub    *Hub
}

func NewBroker(logger zerolog.Logger, pgPool *pgxpool.Pool, hub *Hub) *Broker {
	return &Broker{
		logger: logger,
		pgPool: pgPool,
		hub:    hub,
	}
}

func (b *Broker) Hub() *Hub {
	return b.hub
}

// Publish notifies the change channel. On failure the event is
// delivered to local subscribers directly so this instance's clients
// still see their own write.
func (b *Broker) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.logger.Error().
			Err(err).
			Msg("failed to marshal change event")
		return
	}

	_, err = b.pgPool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload))
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("table", e.Table).
			Str("row_id", e.RowID).
			Msg("failed to notify change channel, delivering locally")
		b.hub.Publish(e)
	}
}

// Listen holds a dedicated connection on the change channel and fans
// notifications into the hub until ctx is canceled.
func (b *Broker) Listen(ctx context.Context) error {
	conn, err := b.pgPool.Acquire(ctx)
	if err != nil {
		b.logger.Error().
			Err(err).
			Msg("failed to acquire listen connection")
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `LISTEN `+notifyChannel)
	if err != nil {
		b.logger.Error().
			Err(err).
			Msg("failed to listen on change channel")
		return err
	}
	b.logger.Info().
		Str("channel", notifyChannel).
		Msg("listening for row changes")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info().Msg("stopped listening for row changes")
				return nil
			}
			b.logger.Error().
				Err(err).
				Msg("failed to wait for notification")
			return err
		}

		var e Event
		err = json.Unmarshal([]byte(notification.Payload), &e)
		if err != nil {
			b.logger.Error().
				Err(err).
				Str("payload", notification.Payload).
				Msg("failed to unmarshal change event")
			continue
		}
		b.hub.Publish(e)
	}
}
