package cart

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const watchChannelPrefix = "storefront:cart:"

// Loader fetches the current cart snapshot for an identity.
type Loader func(ctx context.Context, userID uuid.UUID) ([]LineWithProduct, error)

type subscriber struct {
	ch chan []LineWithProduct
}

// Watch is a per-identity broadcast hub for cart snapshots. Subscribers get
// the current full snapshot immediately and a fresh full snapshot after
// every successful mutation (never diffs). With a Redis client attached,
// mutations made by another process reach local subscribers through
// pub/sub on storefront:cart:<userID>.
type Watch struct {
	loader Loader
	rdb    *redis.Client

	mu   sync.Mutex
	subs map[uuid.UUID]map[*subscriber]struct{}
	last map[uuid.UUID][]LineWithProduct
}

func NewWatch(loader Loader, rdb *redis.Client) *Watch {
	return &Watch{
		loader: loader,
		rdb:    rdb,
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
		last:   make(map[uuid.UUID][]LineWithProduct),
	}
}

// Subscribe registers a watcher for one identity. The returned channel
// receives the current snapshot first, then one snapshot per change. It is
// closed when ctx is cancelled. Slow consumers only ever lag by one
// snapshot: stale pending snapshots are replaced, not queued.
func (w *Watch) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []LineWithProduct, error) {
	snapshot, err := w.loader(ctx, userID)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{ch: make(chan []LineWithProduct, 1)}
	sub.ch <- snapshot

	w.mu.Lock()
	if w.subs[userID] == nil {
		w.subs[userID] = make(map[*subscriber]struct{})
	}
	w.subs[userID][sub] = struct{}{}
	w.last[userID] = snapshot
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		if set, ok := w.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(w.subs, userID)
				delete(w.last, userID)
			}
		}
		w.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

// Notify reloads the identity's cart and pushes the snapshot to local
// subscribers, then tells other instances over Redis. Called by the service
// after every successful mutation; failures here never fail the mutation.
func (w *Watch) Notify(ctx context.Context, userID uuid.UUID) {
	w.publishLocal(ctx, userID)

	if w.rdb == nil {
		return
	}
	if err := w.rdb.Publish(ctx, watchChannelPrefix+userID.String(), userID.String()).Err(); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("watch: failed to publish cart change to redis")
	}
}

func (w *Watch) publishLocal(ctx context.Context, userID uuid.UUID) {
	w.mu.Lock()
	hasSubs := len(w.subs[userID]) > 0
	w.mu.Unlock()
	if !hasSubs {
		return
	}

	snapshot, err := w.loader(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("watch: failed to reload cart snapshot")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.last[userID] = snapshot
	for sub := range w.subs[userID] {
		// Drop the undelivered snapshot, if any, and keep only the latest.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}

// Run consumes cross-instance cart change notifications until ctx is
// cancelled. No-op without a Redis client.
func (w *Watch) Run(ctx context.Context) {
	if w.rdb == nil {
		return
	}

	pubsub := w.rdb.PSubscribe(ctx, watchChannelPrefix+"*")
	defer pubsub.Close()

	log.Info().Msg("watch: redis cart subscription started")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			userID, err := uuid.FromString(msg.Payload)
			if err != nil {
				log.Warn().Str("payload", msg.Payload).Msg("watch: ignoring malformed cart change message")
				continue
			}
			w.publishLocal(ctx, userID)
		}
	}
}
