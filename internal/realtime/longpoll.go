package realtime

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pollLimit caps how often the poll loop may issue a request. A healthy
// backend holds the request open until events arrive, so the limiter only
// matters when the server answers immediately (empty batches, errors at the
// edge of the timeout); it keeps the loop from running hot.
var pollLimit = rate.Every(250 * time.Millisecond)

// pollConn is the long-polling flavor of conn, used when the websocket
// dial fails. Events are fetched in batches through the REST bridge and
// dispatched in arrival order; outbound events go through PushEvent.
type pollConn struct {
	t       *Transport
	id      uint64
	bridge  RestBridge
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
}

func newPollConn(t *Transport, id uint64, bridge RestBridge) *pollConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &pollConn{
		t:       t,
		id:      id,
		bridge:  bridge,
		limiter: rate.NewLimiter(pollLimit, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *pollConn) start() {
	go p.loop()
}

func (p *pollConn) emit(env Envelope) error {
	return p.bridge.PushEvent(p.ctx, env)
}

func (p *pollConn) close() error {
	p.cancel()
	return nil
}

func (p *pollConn) loop() {
	cursor := ""
	for {
		if err := p.limiter.Wait(p.ctx); err != nil {
			// Closed locally; Disconnect already updated the state.
			return
		}

		events, next, err := p.bridge.PollEvents(p.ctx, cursor)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.t.lostConn(p.id, err)
			return
		}
		cursor = next

		for _, env := range events {
			p.t.dispatch(env.Type, env.Data)
		}
	}
}
