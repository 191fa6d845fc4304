package timers

import "time"

// timerEntry is one scheduled callback on the virtual timeline.
type timerEntry struct {
	id        TimerID
	due       time.Time
	seq       int64
	fn        func()
	interval  time.Duration // 0 for one-shot timers
	cancelled bool
}

// timerQueue is a min-heap ordered by due time, then by insertion
// sequence, so callbacks scheduled for the same instant fire in
// registration order. Cancelled entries stay queued and are discarded
// when they reach the top.
type timerQueue []*timerEntry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if !q[i].due.Equal(q[j].due) {
		return q[i].due.Before(q[j].due)
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(*timerEntry)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
