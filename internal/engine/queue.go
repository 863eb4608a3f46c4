package engine

import (
	"fmt"

	"github.com/roach88/rulebook/internal/value"
)

// queuedFact is one inserted fact. A fact that failed conversion keeps its
// slot so queue positions stay aligned with insertion order.
type queuedFact struct {
	value value.Value
	err   error
}

// factQueue is the append-only FIFO of facts inserted into a session.
//
// Facts are never dequeued: Fire walks the whole queue every time it runs.
type factQueue struct {
	facts []queuedFact
}

func newFactQueue() *factQueue {
	return &factQueue{facts: make([]queuedFact, 0, 16)}
}

// Push converts fact and appends it.
func (q *factQueue) Push(fact any) {
	v, err := value.Of(fact)
	q.facts = append(q.facts, queuedFact{value: v, err: err})
}

// Len returns the number of queued facts.
func (q *factQueue) Len() int {
	return len(q.facts)
}

// Values returns the queued facts in insertion order, or the first
// conversion failure.
func (q *factQueue) Values() ([]value.Value, error) {
	out := make([]value.Value, len(q.facts))
	for i, f := range q.facts {
		if f.err != nil {
			return nil, &RuntimeError{
				Code:      ErrCodeInvalidFact,
				Message:   fmt.Sprintf("fact %d cannot be converted", i),
				FactIndex: i,
				Err:       f.err,
			}
		}
		out[i] = f.value
	}
	return out, nil
}
