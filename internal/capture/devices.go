package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// ErrNoInputDevice is returned when no audio device exposes input
// channels.
var ErrNoInputDevice = errors.New("no audio input device found")

// FindInputDevice returns the first device with input channels along
// with its index in the device table. PortAudio must be initialized.
func FindInputDevice() (*portaudio.DeviceInfo, int, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, -1, fmt.Errorf("failed to query audio devices: %w", err)
	}

	for i, device := range devices {
		if device.MaxInputChannels > 0 {
			return device, i, nil
		}
	}
	return nil, -1, ErrNoInputDevice
}

// DescribeDevices returns a one-line-per-device listing for diagnostics
// when no input device is available.
func DescribeDevices() string {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Sprintf("failed to query audio devices: %v", err)
	}

	var b strings.Builder
	for i, device := range devices {
		fmt.Fprintf(&b, "[%d] %s (in: %d, out: %d)\n",
			i, device.Name, device.MaxInputChannels, device.MaxOutputChannels)
	}
	return b.String()
}
