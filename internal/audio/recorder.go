package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// DefaultSampleRate is the capture rate Whisper models are trained on.
const DefaultSampleRate = 16000

// DefaultChannels is mono capture.
const DefaultChannels = 1

// levelWindow is how many recent samples feed the live level meter.
const levelWindow = 3200

// RecorderOptions configures a capture session.
type RecorderOptions struct {
	// Device selects a specific capture device; nil uses the backend default.
	Device     *Device
	SampleRate int
	Channels   int
}

// Clip is a finished capture.
type Clip struct {
	Samples    []int
	SampleRate int
	Channels   int
}

// Duration returns the clip length derived from its sample count.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(float64(frames) / float64(c.SampleRate) * float64(time.Second))
}

// Recorder captures signed 16-bit PCM from a microphone into memory.
// It is safe for the capture callback and callers to race on the buffer.
type Recorder struct {
	backend *malgo.AllocatedContext
	device  *malgo.Device
	opts    RecorderOptions

	mu      sync.Mutex
	raw     []byte
	recent  []int
	running bool
	started time.Time
}

// NewRecorder initializes the audio backend and opens the capture device.
// Callers must Close the recorder to release the device.
func NewRecorder(opts RecorderOptions) (*Recorder, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}

	backend, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio backend: %w", err)
	}

	rec := &Recorder{backend: backend, opts: opts}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(opts.Channels)
	deviceConfig.SampleRate = uint32(opts.SampleRate)
	if opts.Device != nil {
		deviceConfig.Capture.DeviceID = opts.Device.id.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			rec.append(input)
		},
	}

	device, err := malgo.InitDevice(backend.Context, deviceConfig, callbacks)
	if err != nil {
		_ = backend.Uninit()
		backend.Free()
		return nil, fmt.Errorf("open capture device: %w", err)
	}
	rec.device = device
	return rec, nil
}

func (r *Recorder) append(input []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.raw = append(r.raw, input...)

	samples := DecodeS16LE(input)
	r.recent = append(r.recent, samples...)
	if overflow := len(r.recent) - levelWindow; overflow > 0 {
		r.recent = r.recent[overflow:]
	}
}

// Start begins filling the capture buffer. Any previously captured audio
// is discarded.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("recorder already running")
	}
	r.raw = nil
	r.recent = nil
	r.running = true
	r.started = time.Now()
	r.mu.Unlock()

	if err := r.device.Start(); err != nil {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// Stop halts capture and returns the recorded clip.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil, errors.New("recorder not running")
	}
	r.running = false
	r.mu.Unlock()

	if err := r.device.Stop(); err != nil {
		return nil, fmt.Errorf("stop capture: %w", err)
	}

	r.mu.Lock()
	raw := r.raw
	r.raw = nil
	r.recent = nil
	r.mu.Unlock()

	return &Clip{
		Samples:    DecodeS16LE(raw),
		SampleRate: r.opts.SampleRate,
		Channels:   r.opts.Channels,
	}, nil
}

// Record captures for the given duration, or until the context is
// cancelled, then returns the clip. A non-positive duration records until
// cancellation. Cancellation is not an error: the audio captured so far is
// returned.
func (r *Recorder) Record(ctx context.Context, duration time.Duration) (*Clip, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}

	var timerC <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case <-timerC:
	case <-ctx.Done():
	}
	return r.Stop()
}

// Level reports the RMS level of the most recent capture window,
// normalized to [0, 1].
func (r *Recorder) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RMS(r.recent)
}

// Elapsed reports how long the current capture has been running.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return 0
	}
	return time.Since(r.started)
}

// Close releases the capture device and the audio backend.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	if r.backend != nil {
		_ = r.backend.Uninit()
		r.backend.Free()
		r.backend = nil
	}
}
