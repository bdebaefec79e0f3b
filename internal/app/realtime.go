package app

import (
	"context"
	"time"

	"github.com/avelkov/quadboard/internal/realtime"
)

// StartRealtimeListener keeps a LISTEN connection alive in the
// background, reconnecting with a short delay when the loop drops.
func StartRealtimeListener(broker *realtime.Broker) {
	go func() {
		const retryDelay = 5 * time.Second
		for {
			err := broker.Listen(context.Background())
			if err == nil {
				return
			}
			globalLogger.Error().
				Err(err).
				Dur("retry_in", retryDelay).
				Msg("realtime listener stopped, restarting")
			time.Sleep(retryDelay)
		}
	}()
}
