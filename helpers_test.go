package retire

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/retire/disposal"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

var (
	errCreateRefused = errors.New("out of fence objects")
	errSubmitRefused = errors.New("queue lost")
)

// scriptedDevice wraps a noop device and decides fence waits itself.
type scriptedDevice struct {
	hal.Device

	mu         sync.Mutex
	hold       bool // every wait reports "not signaled"
	holdPolls  int  // zero-timeout waits reporting "not signaled" before success
	waitErr    error
	failCreate bool

	waits     int
	polls     int
	created   int
	destroyed int
	freedCmds int
}

func newScriptedDevice(t *testing.T) *scriptedDevice {
	t.Helper()
	device, _, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	return &scriptedDevice{Device: device}
}

func (d *scriptedDevice) CreateFence() (hal.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failCreate {
		return nil, errCreateRefused
	}
	d.created++
	return d.Device.CreateFence()
}

func (d *scriptedDevice) DestroyFence(f hal.Fence) {
	d.mu.Lock()
	d.destroyed++
	d.mu.Unlock()
	d.Device.DestroyFence(f)
}

func (d *scriptedDevice) Wait(_ hal.Fence, _ uint64, timeout time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waits++
	if timeout == 0 {
		d.polls++
		if d.holdPolls > 0 {
			d.holdPolls--
			return false, nil
		}
	}
	if d.waitErr != nil {
		return false, d.waitErr
	}
	return !d.hold, nil
}

func (d *scriptedDevice) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.mu.Lock()
	d.freedCmds++
	d.mu.Unlock()
	if cmd != nil {
		d.Device.FreeCommandBuffer(cmd)
	}
}

func (d *scriptedDevice) setHold(hold bool) {
	d.mu.Lock()
	d.hold = hold
	d.mu.Unlock()
}

func (d *scriptedDevice) counts() (waits, polls, created, destroyed, freedCmds int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waits, d.polls, d.created, d.destroyed, d.freedCmds
}

// scriptedQueue records submitted fence values.
type scriptedQueue struct {
	mu       sync.Mutex
	values   []uint64
	failNext error
}

func (q *scriptedQueue) Submit(_ []hal.CommandBuffer, _ hal.Fence, value uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failNext != nil {
		err := q.failNext
		q.failNext = nil
		return err
	}
	q.values = append(q.values, value)
	return nil
}

func (q *scriptedQueue) submitted() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uint64(nil), q.values...)
}

// counter is a resource that counts its frees.
type counter struct {
	mu    sync.Mutex
	frees int
}

func (c *counter) Free() {
	c.mu.Lock()
	c.frees++
	c.mu.Unlock()
}

// resource returns a fresh resource counting into c, so one counter can
// back many batches without looking like a double free.
func (c *counter) resource() disposal.Resource {
	return disposal.ResourceFunc(c.Free)
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frees
}

// recordCommandBuffer encodes an empty command buffer on device.
func recordCommandBuffer(t *testing.T, device hal.Device, label string) hal.CommandBuffer {
	t.Helper()
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		t.Fatalf("CreateCommandEncoder failed: %v", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		t.Fatalf("BeginEncoding failed: %v", err)
	}
	cmd, err := encoder.EndEncoding()
	if err != nil {
		t.Fatalf("EndEncoding failed: %v", err)
	}
	return cmd
}
