package pipeline

import (
	"context"
	"time"
)

// admit reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (p *Pipeline) admit(ctx context.Context) (func(), error) {
	timer := time.NewTimer(p.maxWait)
	defer timer.Stop()

	select {
	case p.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{stage: "queue"}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-p.queueCh
		}
	}()
	select {
	case p.runCh <- struct{}{}:
		acquired = true
		return func() { <-p.runCh; <-p.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{stage: "run"}
	}
}
