// Package ledqueue implements the rate-limited LED output queue (spec.md
// §4.12), grounded on
// original_source/src/host/shadow_led_queue.{c,h}: per-LED (indexed by
// note or CC number, cable 0) the latest requested colour is coalesced and
// flushed up to a per-tick budget.
package ledqueue

// Budget in normal mode vs. when the host "owns" the mailbox (overtake).
const (
	MaxUpdatesPerTick = 16
	OvertakeBudget    = 48
	SafeBytes         = 76
)

// pending holds one coalesced LED update; color < 0 means not pending.
type pending struct {
	color  int
	status byte
	cin    byte
}

// Queue coalesces note and CC LED colour requests by index (0-127) and
// flushes at most N per tick, favoring a byte budget that leaves room for
// other outbound MIDI (spec.md §4.12).
type Queue struct {
	notes [128]pending
	ccs   [128]pending
}

// New returns an empty queue with nothing pending.
func New() *Queue {
	q := &Queue{}
	q.Reset()
	return q
}

// Reset clears all pending entries.
func (q *Queue) Reset() {
	for i := range q.notes {
		q.notes[i] = pending{color: -1}
		q.ccs[i] = pending{color: -1}
	}
}

// QueueNote coalesces a note-on LED request by note number (0-127); a
// later call for the same note before the next flush overwrites it.
func (q *Queue) QueueNote(cin, status, note, color byte) {
	if int(note) >= len(q.notes) {
		return
	}
	q.notes[note] = pending{color: int(color), status: status, cin: cin}
}

// QueueCC coalesces a CC LED request by controller number (0-127).
func (q *Queue) QueueCC(cin, status, cc, color byte) {
	if int(cc) >= len(q.ccs) {
		return
	}
	q.ccs[cc] = pending{color: int(color), status: status, cin: cin}
}

// Packet is one flushed 4-byte USB-MIDI LED update.
type Packet struct {
	CIN, Status, Data1, Data2 byte
}

// Flush drains up to budget pending updates (notes first, then CCs),
// clearing them as they're emitted (spec.md §4.12). usedBytes is the
// number of mailbox bytes already occupied by other pending MIDI, used to
// cap how many 4-byte packets still fit within the byte budget for this
// mode (overtake raises the count budget from 16 to 48 and widens the
// usable byte range to the whole MIDI-out region).
func (q *Queue) Flush(usedBytes int, overtake bool) []Packet {
	maxBytes := SafeBytes
	budget := MaxUpdatesPerTick
	if overtake {
		maxBytes = 256 // full mailbox MIDI-out region in overtake mode
		budget = OvertakeBudget
	}
	available := (maxBytes - usedBytes) / 4
	if available <= 0 || budget <= 0 {
		return nil
	}
	if budget > available {
		budget = available
	}

	out := make([]Packet, 0, budget)
	for i := range q.notes {
		if len(out) >= budget {
			return out
		}
		if q.notes[i].color < 0 {
			continue
		}
		p := q.notes[i]
		out = append(out, Packet{CIN: p.cin, Status: p.status, Data1: byte(i), Data2: byte(p.color)})
		q.notes[i].color = -1
	}
	for i := range q.ccs {
		if len(out) >= budget {
			return out
		}
		if q.ccs[i].color < 0 {
			continue
		}
		p := q.ccs[i]
		out = append(out, Packet{CIN: p.cin, Status: p.status, Data1: byte(i), Data2: byte(p.color)})
		q.ccs[i].color = -1
	}
	return out
}
