package async

// Promise runs f on its own goroutine. The channel is buffered, so the
// goroutine finishes even if nobody reads the result.
func Promise[R any](f func() R) <-chan R {
	out := make(chan R, 1)
	go func() {
		out <- f()
	}()
	return out
}
