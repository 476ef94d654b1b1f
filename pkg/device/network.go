package device

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// NetworkConfig wires every node to the buffer it hears (In) and the buffer
// it plays into (Out). Nodes sharing a buffer share the air.
type NetworkConfig[BufferIDType comparable] []struct {
	In  BufferIDType
	Out BufferIDType
}

type networkNode[BufferIDType comparable] struct {
	*Network[BufferIDType]
	input    []int32
	output   []int32
	callback func([]int32, []int32)
}

// Network simulates an acoustic channel between devices. Each tick every
// running node consumes its input buffer and fills its output buffer; the
// outputs are then mixed into the buffers for the next tick.
type Network[BufferIDType comparable] struct {
	SampleRate float64                     // the fake sample rate, 0 means no limit
	Config     NetworkConfig[BufferIDType] // the topology of the network
	Gain       float64                     // attenuation applied to every mixed buffer, 0 means 1
	Noise      float64                     // uniform noise amplitude relative to full scale
	Seed       uint64
	LateUpdate func() // the post process function, called after mixing

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	buffers  map[BufferIDType][]int32
	devices  []*networkNode[BufferIDType]
	rng      *rand.Rand
	done     chan struct{}
	stopped  chan struct{}
}

// Build creates one Device per Config entry, in order.
func (n *Network[BufferIDType]) Build() []Device {
	n.buffers = make(map[BufferIDType][]int32)
	n.rng = rand.New(rand.NewSource(n.Seed))
	n.done = make(chan struct{})
	n.stopped = make(chan struct{})

	devices := make([]Device, 0, len(n.Config))
	for _, deviceConfig := range n.Config {
		node := &networkNode[BufferIDType]{
			Network: n,
			input:   n.buffer(deviceConfig.In),
			output:  alloci32(BufferSize),
		}
		n.buffer(deviceConfig.Out)
		n.devices = append(n.devices, node)
		devices = append(devices, node)
	}
	return devices
}

func (n *Network[BufferIDType]) buffer(name BufferIDType) []int32 {
	buf, ok := n.buffers[name]
	if !ok {
		buf = alloci32(BufferSize)
		n.buffers[name] = buf
	}
	return buf
}

// Stop halts the simulation and waits for the current tick.
func (n *Network[BufferIDType]) Stop() {
	n.stopOnce.Do(func() {
		close(n.done)
	})
	n.mu.Lock()
	started := n.started
	n.mu.Unlock()
	if started {
		<-n.stopped
	}
}

func (n *Network[BufferIDType]) update() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, d := range n.devices {
		if d.callback != nil {
			d.callback(d.input, d.output)
		} else {
			cleari32(d.output)
		}
	}

	// clear the buffers
	for _, buf := range n.buffers {
		cleari32(buf)
	}

	// sum up the output of all the devices to the input buffer
	for i, deviceConfig := range n.Config {
		buf := n.buffers[deviceConfig.Out]
		sumi32(buf, n.devices[i].output, buf)
	}

	for _, buf := range n.buffers {
		if n.Gain != 0 && n.Gain != 1 {
			scalei32(buf, n.Gain)
		}
		if n.Noise > 0 {
			noisei32(buf, n.Noise, n.rng)
		}
	}

	if n.LateUpdate != nil {
		n.LateUpdate()
	}
}

func (n *Network[BufferIDType]) run() {
	defer close(n.stopped)

	if n.SampleRate == 0 {
		for {
			select {
			case <-n.done:
				return
			default:
				n.update()
			}
		}
	}

	ticker := time.NewTicker(bufferPeriod(n.SampleRate))
	defer ticker.Stop()
	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			n.update()
		}
	}
}

// Start attaches callback to the node. The first Start runs the network.
func (d *networkNode[BufferIDType]) Start(callback func([]int32, []int32)) error {
	n := d.Network
	n.mu.Lock()
	d.callback = callback
	start := !n.started
	n.started = true
	n.mu.Unlock()

	if start {
		go n.run()
	}
	return nil
}

// Stop detaches the node. It is not called again once Stop returns.
func (d *networkNode[BufferIDType]) Stop() error {
	n := d.Network
	n.mu.Lock()
	d.callback = nil
	n.mu.Unlock()
	return nil
}
