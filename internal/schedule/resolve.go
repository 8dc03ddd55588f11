package schedule

import (
	"sort"
	"time"
)

// Status is what is happening at Now. MinutesToNext is only meaningful
// when Next is set.
type Status struct {
	Now           time.Time
	Current       *TimeBlock
	Next          *TimeBlock
	MinutesToNext int
}

// HasNext reports whether a later block exists today.
func (s Status) HasNext() bool { return s.Next != nil }

// Resolve derives the current and next block for now. It is pure and cheap
// enough to call on every tick. Only today's blocks are considered: when
// nothing remains today there is no next block, even if tomorrow has one.
//
// Overlapping blocks are resolved by earliest start, then by slice order.
func Resolve(now time.Time, blocks []TimeBlock) Status {
	st := Status{Now: now}
	today := DayOf(now)
	tod := timeOfDay(now)

	currentIdx, nextIdx := -1, -1
	for i := range blocks {
		b := &blocks[i]
		if !b.OnDay(today) {
			continue
		}
		start, end := b.Start.Offset(), b.End.Offset()
		if start <= tod && tod < end {
			if currentIdx < 0 || b.Start < blocks[currentIdx].Start {
				currentIdx = i
			}
		}
		if start > tod {
			if nextIdx < 0 || b.Start < blocks[nextIdx].Start {
				nextIdx = i
			}
		}
	}

	if currentIdx >= 0 {
		cur := blocks[currentIdx]
		st.Current = &cur
	}
	if nextIdx >= 0 {
		next := blocks[nextIdx]
		st.Next = &next
		mins := int((next.Start.Offset() - tod) / time.Minute)
		if mins < 0 {
			mins = 0
		}
		st.MinutesToNext = mins
	}
	return st
}

// ForDay returns the blocks recurring on d ordered by start time.
func ForDay(d Day, blocks []TimeBlock) []TimeBlock {
	var out []TimeBlock
	for _, b := range blocks {
		if b.OnDay(d) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ScheduledTime sums the length of every block on d.
func ScheduledTime(d Day, blocks []TimeBlock) time.Duration {
	var total time.Duration
	for _, b := range ForDay(d, blocks) {
		total += b.Duration()
	}
	return total
}
