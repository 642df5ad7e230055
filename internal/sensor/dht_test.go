package sensor

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

// framePulses renders frame as the levels a sensor would hold, preceded by
// the response low/high and followed by the trailing low.
func framePulses(frame [5]byte) []pulse {
	pulses := []pulse{
		{high: true, d: 30 * time.Microsecond},
		{high: false, d: 80 * time.Microsecond},
		{high: true, d: 80 * time.Microsecond},
	}
	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			high := 27 * time.Microsecond
			if b&(1<<bit) != 0 {
				high = 70 * time.Microsecond
			}
			pulses = append(pulses,
				pulse{high: false, d: 50 * time.Microsecond},
				pulse{high: true, d: high},
			)
		}
	}

	return append(pulses, pulse{high: false, d: 50 * time.Microsecond})
}

func TestDecodeFrame(t *testing.T) {
	want := [5]byte{60, 0, 23, 5, 88}

	got, err := decodeFrame(framePulses(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A capture that missed the response phase still aligns on the data bits.
	got, err = decodeFrame(framePulses(want)[3:])
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeFrameShort(t *testing.T) {
	_, err := decodeFrame(framePulses([5]byte{1, 2, 3, 4, 10})[:40])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short frame")

	_, err = decodeFrame(nil)
	assert.Error(t, err)
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name        string
		model       Model
		frame       [5]byte
		humidity    float64
		temperature float64
	}{
		{"dht11", DHT11, [5]byte{60, 0, 23, 5, 88}, 60.0, 23.5},
		{"dht11 below zero", DHT11, [5]byte{45, 0, 3, 0x83, 179}, 45.0, -3.3},
		{"dht22", DHT22, [5]byte{0x02, 0x8c, 0x00, 0xeb, 0x79}, 65.2, 23.5},
		{"dht22 below zero", DHT22, [5]byte{0x02, 0x8c, 0x80, 0x65, 0x73}, 65.2, -10.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, c, err := parseFrame(tt.model, tt.frame)
			require.NoError(t, err)
			assert.InDelta(t, tt.humidity, h, 1e-9)
			assert.InDelta(t, tt.temperature, c, 1e-9)
		})
	}
}

func TestParseFrameChecksum(t *testing.T) {
	_, _, err := parseFrame(DHT11, [5]byte{60, 0, 23, 5, 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.False(t, IsHardware(err))
}

type fakeLine struct {
	outErr error
	halts  int
}

func (l *fakeLine) Out(gpio.Level) error          { return l.outErr }
func (l *fakeLine) In(gpio.Pull, gpio.Edge) error { return nil }
func (l *fakeLine) Read() gpio.Level              { return gpio.High }

func (l *fakeLine) Halt() error {
	l.halts++
	return nil
}

func TestDHTDriverPinFailureIsHardware(t *testing.T) {
	d := newDHTDriver(&fakeLine{outErr: stderrors.New("permission denied")}, "GPIO4", DHT11)

	_, _, err := d.Read()
	require.Error(t, err)
	assert.True(t, IsHardware(err))
}

func TestDHTDriverReadTooSoon(t *testing.T) {
	clock := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	d := newDHTDriver(&fakeLine{outErr: stderrors.New("busy")}, "GPIO4", DHT11)
	d.now = func() time.Time { return clock }

	_, _, err := d.Read()
	require.True(t, IsHardware(err))

	clock = clock.Add(500 * time.Millisecond)
	_, _, err = d.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read too soon")
	assert.False(t, IsHardware(err))
}

func TestDHTDriverSilentLineIsTransient(t *testing.T) {
	d := newDHTDriver(&fakeLine{}, "GPIO4", DHT22)

	_, _, err := d.Read()
	require.Error(t, err)
	assert.False(t, IsHardware(err))
}

func TestDHTDriverClose(t *testing.T) {
	l := &fakeLine{}
	d := newDHTDriver(l, "GPIO4", DHT11)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, l.halts)

	_, _, err := d.Read()
	assert.ErrorIs(t, err, ErrClosed)
}
