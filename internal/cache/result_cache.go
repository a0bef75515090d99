package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"surveyforge/internal/model"
)

const updatesChannelPrefix = "result-updates:"

// ResultCache mirrors rendered result sessions in Redis so any instance can
// serve a snapshot, and fans component updates out across instances.
type ResultCache interface {
	SetSnapshot(ctx context.Context, snap *model.ResultSnapshot) error
	GetSnapshot(ctx context.Context, sessionID string) (*model.ResultSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
	PublishUpdate(ctx context.Context, origin string, update *model.ComponentUpdate) error
	PublishClose(ctx context.Context, origin, sessionID string) error
	RelayUpdates(ctx context.Context, fn func(event *RelayedEvent)) error
}

// Relayed event kinds
const (
	EventUpdate = "update"
	EventClose  = "close"
)

// RelayedEvent is the pub/sub envelope. Update is set for EventUpdate only.
type RelayedEvent struct {
	Origin    string                 `json:"origin"`
	Kind      string                 `json:"kind"`
	SessionID string                 `json:"sessionId"`
	Update    *model.ComponentUpdate `json:"update,omitempty"`
}

type resultCache struct {
	client  *redis.Client
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewResultCache creates a result cache; snapshots expire after ttl and are
// stored zstd-compressed.
func NewResultCache(client *redis.Client, ttl time.Duration) (ResultCache, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &resultCache{client: client, ttl: ttl, encoder: encoder, decoder: decoder}, nil
}

func (c *resultCache) key(sessionID string) string {
	return fmt.Sprintf("result:%s", sessionID)
}

func (c *resultCache) SetSnapshot(ctx context.Context, snap *model.ResultSnapshot) error {
	data, err := sonic.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(snap.SessionID), c.encoder.EncodeAll(data, nil), c.ttl).Err()
}

func (c *resultCache) GetSnapshot(ctx context.Context, sessionID string) (*model.ResultSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err = c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap model.ResultSnapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *resultCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

func (c *resultCache) PublishUpdate(ctx context.Context, origin string, update *model.ComponentUpdate) error {
	return c.publish(ctx, &RelayedEvent{Origin: origin, Kind: EventUpdate, SessionID: update.SessionID, Update: update})
}

// PublishClose tells the instance that owns sessionID to tear it down
func (c *resultCache) PublishClose(ctx context.Context, origin, sessionID string) error {
	return c.publish(ctx, &RelayedEvent{Origin: origin, Kind: EventClose, SessionID: sessionID})
}

func (c *resultCache) publish(ctx context.Context, event *RelayedEvent) error {
	data, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, updatesChannelPrefix+event.SessionID, data).Err()
}

// RelayUpdates blocks, calling fn for every published event until ctx ends
func (c *resultCache) RelayUpdates(ctx context.Context, fn func(event *RelayedEvent)) error {
	sub := c.client.PSubscribe(ctx, updatesChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to result updates: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := decodeEvent(msg.Channel, msg.Payload)
			if err != nil {
				continue
			}
			fn(event)
		}
	}
}

// decodeEvent parses a pub/sub payload, filling the session ID from the
// channel when the payload omits it
func decodeEvent(channel, payload string) (*RelayedEvent, error) {
	var event RelayedEvent
	if err := sonic.UnmarshalString(payload, &event); err != nil {
		return nil, err
	}
	if event.SessionID == "" {
		event.SessionID = strings.TrimPrefix(channel, updatesChannelPrefix)
	}
	switch event.Kind {
	case EventClose:
		event.Update = nil
	case EventUpdate, "":
		if event.Update == nil {
			return nil, fmt.Errorf("update event for %s has no update", event.SessionID)
		}
		event.Kind = EventUpdate
		if event.Update.SessionID == "" {
			event.Update.SessionID = event.SessionID
		}
	default:
		return nil, fmt.Errorf("unknown relayed event kind %q", event.Kind)
	}
	return &event, nil
}
