package reconcile

import (
	"context"
	"errors"
	"fmt"
)

var errRowPanic = errors.New("row processing panicked")

// workItem is one legacy row moving through the run. Entry is filled in as
// processing progresses so a failure can still be reported with context.
type workItem struct {
	Position int
	Row      Row
	Entry    Entry
	Hints    *rowHints
	Dropped  []DroppedStage
	Counts   EntityCounts
}

// workQueue is a FIFO of rows drained by a single consumer
type workQueue struct {
	items []*workItem
	head  int
}

func newWorkQueue(rows []map[string]any) *workQueue {
	q := &workQueue{items: make([]*workItem, 0, len(rows))}
	for i, r := range rows {
		q.items = append(q.items, &workItem{Position: i, Row: Row(r)})
	}
	return q
}

// Len returns the number of items not yet consumed
func (q *workQueue) Len() int {
	return len(q.items) - q.head
}

func (q *workQueue) pop() (*workItem, bool) {
	if q.head >= len(q.items) {
		return nil, false
	}
	item := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	return item, true
}

// drain runs handle for every item in order and passes each outcome to done.
// A panic inside handle becomes an error for that item only.
func (q *workQueue) drain(
	ctx context.Context,
	handle func(context.Context, *workItem) error,
	done func(*workItem, error),
) {
	for {
		item, ok := q.pop()
		if !ok {
			return
		}
		done(item, runItem(ctx, item, handle))
	}
}

func runItem(ctx context.Context, item *workItem, handle func(context.Context, *workItem) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errRowPanic, r)
		}
	}()
	return handle(ctx, item)
}
