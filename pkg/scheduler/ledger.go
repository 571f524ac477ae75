package scheduler

import "time"

// interval is one busy span in a person's ledger
type interval struct {
	itemID string
	start  time.Time
	end    time.Time
	hours  float64
}

// ledger maps a person id to the intervals they are busy for.
// It lives for a single Schedule call.
type ledger map[string][]interval

func (l ledger) add(personID string, iv interval) {
	l[personID] = append(l[personID], iv)
}

// hours returns the total ledgered hours of a person
func (l ledger) hours(personID string) float64 {
	var total float64
	for _, iv := range l[personID] {
		total += iv.hours
	}
	return total
}

// wouldOverlap checks if any of the person's intervals overlaps [start, end)
func (l ledger) wouldOverlap(personID string, start, end time.Time) bool {
	for _, iv := range l[personID] {
		if Overlap(iv.start, iv.end, start, end) {
			return true
		}
	}
	return false
}

// Overlap checks if two half-open time ranges overlap
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
