package aeon

import (
	"sync"
	"time"
)

// TimerID identifies a scheduled TimerEntry for cancellation.
type TimerID uint64

// TimerEntry is a single deadline-based wake-up held in a slot of the
// TimerWheel's intrusive per-slot list.
type TimerEntry struct {
	id        TimerID
	deadline  time.Time
	waker     Waker
	cancelled bool
	fired     bool
	level     int
	slot      int
	prev      *TimerEntry
	next      *TimerEntry
}

// Deadline returns the entry's absolute wake time.
func (e *TimerEntry) Deadline() time.Time { return e.deadline }

// ID returns the entry's cancellation token.
func (e *TimerEntry) ID() TimerID { return e.id }

type timerSlot struct {
	head *TimerEntry
}

func (s *timerSlot) insert(e *TimerEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
}

func (s *timerSlot) remove(e *TimerEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else if s.head == e {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
}

// TimerWheel is a hierarchical timing wheel: levels × slotsPerLevel,
// each slot an intrusive doubly-linked list of *TimerEntry, giving
// expected O(1) insert/cancel and O(slotsPerLevel) advance.
//
// The teacher's own timer structure (eventloop's container/heap-based
// timerheap) leaves ordered insertion at an arbitrary deadline,
// cancellation, and expiry processing as unimplemented TODOs; spec.md
// treats those as required, so this type implements all three fully
// rather than adapting the heap (see DESIGN.md, Open Question 3).
type TimerWheel struct {
	mu            sync.Mutex
	levels        int
	slotsPerLevel int
	basePrecision time.Duration
	wheels        [][]timerSlot
	cursor        []uint64 // current absolute tick index, per level
	start         time.Time
	lastAdvance   time.Time
	nextID        uint64
	byID          map[TimerID]*TimerEntry
	cachedMin     *TimerEntry
}

// NewTimerWheel constructs a wheel per the given config knobs, anchored
// to now.
func NewTimerWheel(levels, slotsPerLevel int, basePrecisionUs int, now time.Time) *TimerWheel {
	if levels <= 0 {
		levels = 3
	}
	if slotsPerLevel <= 0 {
		slotsPerLevel = 64
	}
	if basePrecisionUs <= 0 {
		basePrecisionUs = 1000
	}
	w := &TimerWheel{
		levels:        levels,
		slotsPerLevel: slotsPerLevel,
		basePrecision: time.Duration(basePrecisionUs) * time.Microsecond,
		wheels:        make([][]timerSlot, levels),
		cursor:        make([]uint64, levels),
		start:         now,
		lastAdvance:   now,
		nextID:        1,
		byID:          make(map[TimerID]*TimerEntry),
	}
	for i := range w.wheels {
		w.wheels[i] = make([]timerSlot, slotsPerLevel)
	}
	return w
}

func (w *TimerWheel) levelSpanTicks(level int) uint64 {
	span := uint64(1)
	for i := 0; i <= level; i++ {
		span *= uint64(w.slotsPerLevel)
	}
	return span
}

// insertLocked schedules waker to fire at deadline, returning the entry and its
// cancellation id. Must be called with w.mu held by the caller's
// convention (Schedule below takes the lock).
func (w *TimerWheel) insertLocked(deadline time.Time, waker Waker) *TimerEntry {
	id := TimerID(w.nextID)
	w.nextID++
	e := &TimerEntry{id: id, deadline: deadline, waker: waker}
	w.byID[id] = e
	w.placeLocked(e)
	return e
}

// placeLocked computes e's level/slot for e.deadline relative to the
// wheel's current advance position and inserts it, updating cachedMin.
// It never touches byID or e.id, so it is safe to call both for a
// brand-new entry (insertLocked) and for an existing entry being
// relocated by a cascade (cascadeLocked) without losing the caller's
// ability to Cancel it by its original TimerID.
func (w *TimerWheel) placeLocked(e *TimerEntry) {
	ticks := uint64(0)
	if e.deadline.After(w.lastAdvance) {
		d := e.deadline.Sub(w.lastAdvance)
		ticks = uint64(d / w.basePrecision)
		if d%w.basePrecision != 0 {
			ticks++
		}
	}

	level := w.levels - 1
	for l := 0; l < w.levels; l++ {
		if ticks < w.levelSpanTicks(l) {
			level = l
			break
		}
	}
	levelTicks := uint64(1)
	for i := 0; i < level; i++ {
		levelTicks *= uint64(w.slotsPerLevel)
	}
	steps := ticks / levelTicks
	slotIdx := int((w.cursor[level] + steps) % uint64(w.slotsPerLevel))

	e.level = level
	e.slot = slotIdx
	w.wheels[level][slotIdx].insert(e)

	if w.cachedMin == nil || e.deadline.Before(w.cachedMin.deadline) {
		w.cachedMin = e
	}
}

// Schedule installs waker to fire at deadline and returns a cancellable
// entry.
func (w *TimerWheel) Schedule(deadline time.Time, waker Waker) *TimerEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.insertLocked(deadline, waker)
}

// Cancel removes the entry referenced by id, if still pending. Returns
// true if an entry was actually cancelled (it had not already fired).
func (w *TimerWheel) Cancel(id TimerID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.byID[id]
	if !ok || e.fired || e.cancelled {
		return false
	}
	e.cancelled = true
	w.wheels[e.level][e.slot].remove(e)
	delete(w.byID, id)
	if w.cachedMin == e {
		w.cachedMin = nil
	}
	return true
}

// NextDeadline returns the earliest pending entry's deadline, or false if
// the wheel has no pending entries (a quiescent reactor with no timers,
// per spec.md's boundary behavior).
func (w *TimerWheel) NextDeadline() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cachedMin != nil {
		return w.cachedMin.deadline, true
	}
	var min *TimerEntry
	for _, e := range w.byID {
		if e.cancelled || e.fired {
			continue
		}
		if min == nil || e.deadline.Before(min.deadline) {
			min = e
		}
	}
	w.cachedMin = min
	if min == nil {
		return time.Time{}, false
	}
	return min.deadline, true
}

// ProcessExpired advances the wheel to now, firing (invoking the Waker
// of, and removing) every entry whose deadline has elapsed — including
// entries whose deadline was already in the past when scheduled, which
// fire on the very next advance rather than being delayed, per spec.md's
// boundary behavior.
func (w *TimerWheel) ProcessExpired(now time.Time) int {
	w.mu.Lock()
	var fired []*TimerEntry

	if !now.After(w.lastAdvance) {
		w.mu.Unlock()
		return 0
	}

	elapsed := now.Sub(w.lastAdvance)
	ticks := uint64(elapsed / w.basePrecision)
	w.lastAdvance = w.lastAdvance.Add(time.Duration(ticks) * w.basePrecision)

	// Cap the number of single-tick steps taken in one call so a very
	// long idle gap (e.g. first call after process start) cannot spin
	// here indefinitely; any entries due before now are still caught
	// because their deadline has already elapsed by the time we reach
	// their slot on a subsequent call, and a quiescent wheel (no
	// entries) exits this loop in O(levels) per tick regardless.
	maxSteps := uint64(w.slotsPerLevel) * uint64(w.levels) * 4
	if ticks > maxSteps {
		ticks = maxSteps
	}

	for i := uint64(0); i < ticks; i++ {
		w.cursor[0]++
		slot := int(w.cursor[0] % uint64(w.slotsPerLevel))
		w.drainSlotLocked(0, slot, now, &fired)

		for level := 1; level < w.levels && w.cursor[level-1]%uint64(w.slotsPerLevel) == 0; level++ {
			w.cursor[level]++
			cascadeSlot := int(w.cursor[level] % uint64(w.slotsPerLevel))
			w.cascadeLocked(level, cascadeSlot, now, &fired)
		}
	}

	// Anything still resident whose deadline has already passed (possible
	// after the maxSteps clamp above, or a timer inserted with a
	// past deadline that landed in a not-yet-visited slot) fires too.
	for _, e := range w.byID {
		if !e.cancelled && !e.fired && !e.deadline.After(now) {
			w.wheels[e.level][e.slot].remove(e)
			e.fired = true
			fired = append(fired, e)
		}
	}
	for _, e := range fired {
		delete(w.byID, e.id)
		if w.cachedMin == e {
			w.cachedMin = nil
		}
	}
	w.mu.Unlock()

	for _, e := range fired {
		e.waker.Wake()
		e.waker.Drop()
	}
	return len(fired)
}

// drainSlotLocked fires every entry in wheels[level][slot], whether or
// not its deadline has technically elapsed (level 0 is the finest
// granularity the wheel tracks, so reaching a level-0 slot means its
// entries are due).
func (w *TimerWheel) drainSlotLocked(level, slot int, now time.Time, fired *[]*TimerEntry) {
	e := w.wheels[level][slot].head
	for e != nil {
		next := e.next
		w.wheels[level][slot].remove(e)
		e.fired = true
		*fired = append(*fired, e)
		e = next
	}
}

// cascadeLocked moves every entry out of a higher-level slot and
// reinserts it at its proper lower-level position (or fires it directly
// if it is already due), the classic hierarchical-wheel cascade.
// Entries that are not yet due are relocated in place via placeLocked,
// preserving their original TimerID/entry identity: any external holder
// (e.g. io.go's sleepFuture/timeoutFuture) can still Cancel the entry
// by its original id after it has survived one or more cascades.
func (w *TimerWheel) cascadeLocked(level, slot int, now time.Time, fired *[]*TimerEntry) {
	e := w.wheels[level][slot].head
	for e != nil {
		next := e.next
		w.wheels[level][slot].remove(e)
		if !e.deadline.After(now) {
			e.fired = true
			*fired = append(*fired, e)
		} else {
			w.placeLocked(e)
		}
		e = next
	}
}
