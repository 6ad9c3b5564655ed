package monitor

import "context"

type messageSlot int

const (
	primarySlot messageSlot = iota
	secondarySlot
)

func (s messageSlot) String() string {
	if s == primarySlot {
		return "primary"
	}
	return "secondary"
}

// pendingMessages buffers status text that has not reached the display yet.
// Guarded by the owning Monitor's mutex.
type pendingMessages struct {
	slots [2]*string
}

// publish stores text in the slot, replacing any undelivered value. It reports
// true when the slot was empty, which is the only time a delivery needs to be
// scheduled: a delivery already queued will pick up the newer value.
func (p *pendingMessages) publish(slot messageSlot, text string) bool {
	wasEmpty := p.slots[slot] == nil
	p.slots[slot] = &text
	return wasEmpty
}

// take empties the slot and returns what it held.
func (p *pendingMessages) take(slot messageSlot) (string, bool) {
	text := p.slots[slot]
	p.slots[slot] = nil
	if text == nil {
		return "", false
	}
	return *text, true
}

// SetMessage sets the primary status text. It may be called from any
// goroutine at any rate; the display only ever receives the newest text.
func (m *Monitor) SetMessage(message string) {
	m.publish(primarySlot, message)
}

// SetSecondaryMessage sets the secondary status text.
func (m *Monitor) SetSecondaryMessage(message string) {
	m.publish(secondarySlot, message)
}

func (m *Monitor) publish(slot messageSlot, text string) {
	m.mu.Lock()
	if m.run.disposed {
		m.mu.Unlock()
		return
	}
	schedule := m.run.pending.publish(slot, text)
	m.mu.Unlock()

	if !schedule {
		return
	}
	err := m.dispatcher.Post(func(ctx context.Context) {
		m.deliver(slot)
	})
	if err != nil {
		// nobody will deliver it; free the slot so it does not stay occupied
		m.mu.Lock()
		m.run.pending.take(slot)
		m.mu.Unlock()
		m.log.V(5).Info("dropping status message", "slot", slot.String(), "reason", err.Error())
	}
}

// deliver runs on the dispatcher. The slot is read and cleared in one critical
// section so a publish racing with delivery either lands before the read or
// schedules a delivery of its own.
func (m *Monitor) deliver(slot messageSlot) {
	m.mu.Lock()
	text, ok := m.run.pending.take(slot)
	m.mu.Unlock()
	if !ok {
		return
	}

	switch slot {
	case primarySlot:
		m.display.SetStatusText(text)
	case secondarySlot:
		m.display.SetSubStatusText(text)
	}
}
