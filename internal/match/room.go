package match

import (
	"sync"

	"github.com/Herorishi1234/chess-game/internal/domain"
	"github.com/Herorishi1234/chess-game/pkg/gamedto"
)

// Subscriber receives room events. Delivery is fire-and-forget: Deliver must
// never block, a slow consumer drops events rather than stalling the room.
type Subscriber interface {
	Deliver(ev *gamedto.Event)
}

type member struct {
	accountID string
	sub       Subscriber
}

// room is the serialization domain for one session: every mutating event and
// every membership change for the session runs under its mutex, so events for
// one session are totally ordered while different sessions proceed in
// parallel.
type room struct {
	mu   sync.Mutex
	sess *domain.Session

	subs map[string]member // connection id -> member

	// pending draw offer by seat color; cleared by any accepted move.
	drawOfferFrom domain.Color
}

func newRoom(sess *domain.Session) *room {
	return &room{
		sess: sess,
		subs: make(map[string]member),
	}
}

// broadcastLocked fans an event out to every subscribed connection.
func (r *room) broadcastLocked(ev *gamedto.Event) {
	for _, m := range r.subs {
		m.sub.Deliver(ev)
	}
}

// deliverToLocked sends an event only to connections owned by one account,
// used for private notifications such as draw offers.
func (r *room) deliverToLocked(accountID string, ev *gamedto.Event) {
	for _, m := range r.subs {
		if m.accountID == accountID {
			m.sub.Deliver(ev)
		}
	}
}
