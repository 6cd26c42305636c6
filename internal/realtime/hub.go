// Package realtime рассылает изменения профиля подписчикам через Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"polaroida/internal/domain/models"
	"polaroida/internal/lib/logger/sl"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "profile_changes:"

// Channel имя канала изменений профиля пользователя
func Channel(userID uuid.UUID) string {
	return channelPrefix + userID.String()
}

type Hub struct {
	log *slog.Logger
	rdb redis.UniversalClient
}

func NewHub(log *slog.Logger, rdb redis.UniversalClient) *Hub {
	return &Hub{log: log, rdb: rdb}
}

func (h *Hub) Publish(ctx context.Context, change models.ProfileChange) error {
	const op = "realtime.Hub.Publish"

	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := h.rdb.Publish(ctx, Channel(change.UserID), string(payload)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Subscribe возвращает поток изменений профиля. Канал закрывается после отмены ctx.
func (h *Hub) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan models.ProfileChange, error) {
	const op = "realtime.Hub.Subscribe"

	log := h.log.With(slog.String("op", op), slog.String("user_id", userID.String()))

	pubsub := h.rdb.Subscribe(ctx, Channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan models.ProfileChange, 8)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, err := Decode(msg.Payload)
				if err != nil {
					log.Warn("dropping malformed profile change", sl.Err(err))
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func Decode(payload string) (models.ProfileChange, error) {
	var change models.ProfileChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return models.ProfileChange{}, err
	}
	return change, nil
}
