package chanqueue

import "context"

// Consume drains q.Jobs() until ctx is done, applying each job with run.
// Used by tests that want deterministic in-process projection without a
// River worker or a real database.
func Consume(ctx context.Context, q *Queue, run func(ctx context.Context, job Job) error) error {
	for {
		select {
		case job, ok := <-q.Jobs():
			if !ok {
				return nil
			}
			if err := run(ctx, job); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
