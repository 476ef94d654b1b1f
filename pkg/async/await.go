package async

import "context"

func Await[R any](a <-chan R) R {
	return <-a
}

// AwaitContext waits for a or for ctx, whichever comes first.
func AwaitContext[R any](ctx context.Context, a <-chan R) (R, error) {
	select {
	case r := <-a:
		return r, nil
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
