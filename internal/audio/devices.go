package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// Device describes a capture device available on the host.
type Device struct {
	Index     int
	Name      string
	IsDefault bool

	id malgo.DeviceID
}

// ListCaptureDevices enumerates the capture devices visible to the host
// audio backend, in backend order. The returned indexes are what the
// device_index config field and the --device flag refer to.
func ListCaptureDevices() ([]Device, error) {
	backend, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio backend: %w", err)
	}
	defer func() {
		_ = backend.Uninit()
		backend.Free()
	}()

	infos, err := backend.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, Device{
			Index:     i,
			Name:      strings.TrimSpace(info.Name()),
			IsDefault: info.IsDefault != 0,
			id:        info.ID,
		})
	}
	return devices, nil
}

// SelectDevice resolves a device index against the enumerated devices.
// An index of -1 selects the backend default. Out-of-range indexes are
// rejected rather than silently falling back.
func SelectDevice(devices []Device, index int) (*Device, error) {
	if index < 0 {
		return nil, nil
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("device index %d out of range (found %d capture devices, run 'scribe devices')", index, len(devices))
	}
	dev := devices[index]
	return &dev, nil
}
