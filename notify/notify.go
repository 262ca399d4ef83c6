// Package notify publishes hand-imported events to redis so live overlays can
// refresh without polling the database.
package notify

import (
	"context"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var notifyLogger = log.With().Str("logger_name", "notify::notify").Logger()

// HandImported is the payload published after each stored hand.
type HandImported struct {
	HandID     uint64 `json:"handId"`
	SiteHandNo string `json:"siteHandNo"`
	TableName  string `json:"tableName"`
	GametypeID uint64 `json:"gametypeId"`
	Seats      int    `json:"seats"`
}

// Notifier publishes import events on a redis channel. A nil Notifier is
// valid and publishes nothing, which is how runs without redis configured
// behave.
type Notifier struct {
	client  *redis.Client
	channel string
}

func NewNotifier(addr, password string, db int, channel string) (*Notifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrapf(err, "Unable to reach redis at %s", addr)
	}
	return &Notifier{client: client, channel: channel}, nil
}

// HandImported publishes one event. Publish failures are logged, not fatal;
// the hand is already stored.
func (n *Notifier) HandImported(ctx context.Context, event HandImported) {
	if n == nil {
		return
	}
	payload, err := jsoniter.Marshal(event)
	if err != nil {
		notifyLogger.Error().Err(err).Msg("Unable to marshal hand-imported event")
		return
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		notifyLogger.Error().Err(err).
			Str("channel", n.channel).
			Msg("Unable to publish hand-imported event")
	}
}

func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	return n.client.Close()
}
