package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// FrameRenderer submits the pre-recorded frames and tracks them with a
// single fence, created signaled so the first frame does not wait.
type FrameRenderer struct {
	driver         core1_0.DeviceDriver
	queue          core1_0.Queue
	fence          core1_0.Fence
	commandBuffers []core1_0.CommandBuffer
	timer          stagingTimer

	elapsed float32
}

func NewFrameRenderer(d *Device, buffers *Buffers, commands *CommandBuffers) (*FrameRenderer, error) {
	fence, _, err := d.DeviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create frame fence")
	}

	return &FrameRenderer{
		driver:         d.DeviceDriver,
		queue:          d.Queue,
		fence:          fence,
		commandBuffers: commands.Buffers,
		timer:          buffers.timer(),
	}, nil
}

func (r *FrameRenderer) FrameFinished() (bool, error) {
	res, err := r.driver.GetFenceStatus(r.fence)
	if err != nil {
		return false, err
	}
	return res == core1_0.VKSuccess, nil
}

func (r *FrameRenderer) WaitFrameFinished(timeout time.Duration) (bool, error) {
	res, err := r.driver.WaitForFences(true, timeout, r.fence)
	if err != nil {
		return false, err
	}
	return res != core1_0.VKTimeout, nil
}

func (r *FrameRenderer) AdvanceTimer(seconds float64) error {
	elapsed, err := r.timer.advance(seconds)
	if err != nil {
		return err
	}
	r.elapsed = elapsed
	return nil
}

// Elapsed is the timer value last written to staging memory.
func (r *FrameRenderer) Elapsed() float32 {
	return r.elapsed
}

func (r *FrameRenderer) ResetFrameFence() error {
	_, err := r.driver.ResetFences(r.fence)
	return err
}

func (r *FrameRenderer) Submit(index int) error {
	if index < 0 || index >= len(r.commandBuffers) {
		return errors.Newf("back-buffer index %d out of range [0, %d)", index, len(r.commandBuffers))
	}

	_, err := r.driver.QueueSubmit(r.queue, &r.fence, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{r.commandBuffers[index]},
	})
	return err
}

func (r *FrameRenderer) WaitIdle() error {
	_, err := r.driver.DeviceWaitIdle()
	return err
}

func (r *FrameRenderer) Destroy() {
	if r.fence.Initialized() {
		r.driver.DestroyFence(r.fence, nil)
		r.fence = core1_0.Fence{}
	}
}
