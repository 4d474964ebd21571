package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source, with warning context when the
// preferred input was unusable and a fallback was substituted.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("glimpse"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pulse server: %v", ErrDeviceUnavailable, err)
	}
	return client, nil
}

// ListDevices returns the Pulse input sources with availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultID := ""
	if defaultSource, err := client.DefaultSource(); err == nil {
		defaultID = defaultSource.ID()
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("%w: list sources: %v", ErrDeviceUnavailable, err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceState(info.State),
			Available:   sourceUsable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves the configured input/fallback preferences against
// the live device list.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectFrom(devices, input, fallback)
}

func selectFrom(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, fmt.Errorf("%w: no audio input devices found", ErrDeviceUnavailable)
	}

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	find := func(term string) *Device {
		if term == "" || term == "default" {
			for i := range devices {
				if devices[i].Default {
					return &devices[i]
				}
			}
			return nil
		}
		for i := range devices {
			d := &devices[i]
			if strings.Contains(strings.ToLower(d.ID), term) ||
				strings.Contains(strings.ToLower(d.Description), term) {
				return d
			}
		}
		return nil
	}

	primary := find(input)
	if primary == nil {
		if input == "" || input == "default" {
			return Selection{}, fmt.Errorf("%w: default audio source is unavailable", ErrDeviceUnavailable)
		}
		return Selection{}, fmt.Errorf("%w: audio input %q did not match any device", ErrDeviceUnavailable, input)
	}
	if primary.Available && !primary.Muted {
		return Selection{Device: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt := find(fallback)
	if alt == nil {
		return Selection{}, fmt.Errorf("%w: input %q is %s and no usable fallback", ErrDeviceUnavailable, primary.ID, reason)
	}
	if !alt.Available || alt.Muted {
		return Selection{}, fmt.Errorf("%w: fallback device %q is not usable", ErrDeviceUnavailable, alt.ID)
	}

	return Selection{
		Device:   *alt,
		Warning:  fmt.Sprintf("audio input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: primary.ID != alt.ID,
	}, nil
}

func sourceState(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceUsable checks the active port's availability flag. PulseAudio
// values: unknown=0, no=1, yes=2.
func sourceUsable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	if len(info.Ports) == 0 {
		return true
	}
	for _, port := range info.Ports {
		if port.Name != info.ActivePortName {
			continue
		}
		return port.Available == 0 || port.Available == 2
	}
	return true
}
