package relay

import "time"

type typingState struct {
	roomID string
	gen    uint64
	timer  *time.Timer
}

func (r *Router) startTyping(connID string) {
	entry, roomID, ok := r.identifiedInRoom(connID)
	if !ok {
		return
	}
	r.toRoom(roomID, connID, EventUserTyping, entry.Ref())
	r.armTyping(connID, roomID)
}

func (r *Router) stopTyping(connID string) {
	entry, roomID, ok := r.identifiedInRoom(connID)
	if !ok {
		return
	}
	r.clearTyping(connID)
	r.toRoom(roomID, connID, EventUserStoppedTyping, entry.Ref())
}

// armTyping starts or refreshes the expiry for connID. A zero timeout tracks
// the state without expiring it.
func (r *Router) armTyping(connID, roomID string) {
	r.clearTyping(connID)

	r.typingGen++
	st := &typingState{roomID: roomID, gen: r.typingGen}
	if timeout := r.opts.TypingTimeout; timeout > 0 {
		gen := st.gen
		st.timer = time.AfterFunc(timeout, func() {
			r.enqueue(func() { r.expireTyping(connID, gen) })
		})
	}
	r.typing[connID] = st
}

// clearTyping drops the typing state of connID and reports whether there was any.
func (r *Router) clearTyping(connID string) bool {
	st, ok := r.typing[connID]
	if !ok {
		return false
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(r.typing, connID)
	return true
}

func (r *Router) expireTyping(connID string, gen uint64) {
	st, ok := r.typing[connID]
	if !ok || st.gen != gen {
		return
	}
	delete(r.typing, connID)

	entry, roomID, ok := r.identifiedInRoom(connID)
	if !ok || roomID != st.roomID {
		return
	}
	r.toRoom(roomID, connID, EventUserStoppedTyping, entry.Ref())
}
