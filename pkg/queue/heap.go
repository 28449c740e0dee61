package queue

// entryHeap is a container/heap.Interface over pending wall-clock
// entries, ordered by ReadyTime and tie-broken by insertion Seq so
// that simultaneous deadlines fire in enqueue order.
type entryHeap []*queued

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].ReadyTime.Equal(h[j].ReadyTime) {
		return h[i].Seq < h[j].Seq
	}
	return h[i].ReadyTime.Before(h[j].ReadyTime)
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(*queued))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
