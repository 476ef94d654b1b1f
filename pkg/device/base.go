// Package device provides full-duplex mono audio devices driven by a
// callback that receives one buffer of captured samples and fills one
// buffer of samples to play.
package device

// Device calls the callback from its own goroutine, once per buffer, until
// Stop returns. in is only valid during the call.
type Device interface {
	Start(callback func(in, out []int32)) error
	Stop() error
}

const BufferSize = 512
