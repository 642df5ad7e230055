package sensor

import (
	"fmt"
	"time"
)

const frameBits = 40

// pulse is one completed line level and how long it was held.
type pulse struct {
	high bool
	d    time.Duration
}

// decodeFrame turns captured line levels into the five frame bytes. The
// capture may start anywhere before the first data bit; only the last 40
// low/high pairs are used. A bit is 1 when its high phase outlasts the low
// phase before it.
func decodeFrame(pulses []pulse) ([5]byte, error) {
	var frame [5]byte

	if n := len(pulses); n > 0 && !pulses[n-1].high {
		pulses = pulses[:n-1]
	}
	if len(pulses) < 2*frameBits {
		return frame, fmt.Errorf("short frame: %d levels, want %d", len(pulses), 2*frameBits)
	}

	bits := pulses[len(pulses)-2*frameBits:]
	for i := 0; i < frameBits; i++ {
		low, high := bits[2*i], bits[2*i+1]
		if low.high || !high.high {
			return frame, fmt.Errorf("bit %d: levels out of order", i)
		}

		frame[i/8] <<= 1
		if high.d > low.d {
			frame[i/8] |= 1
		}
	}

	return frame, nil
}

// parseFrame checks the checksum and converts the frame for model into
// humidity and temperature.
func parseFrame(model Model, frame [5]byte) (humidity, temperature float64, err error) {
	sum := frame[0] + frame[1] + frame[2] + frame[3]
	if sum != frame[4] {
		return 0, 0, fmt.Errorf("checksum mismatch: got %#02x, want %#02x", frame[4], sum)
	}

	if model == DHT22 {
		humidity = float64(uint16(frame[0])<<8|uint16(frame[1])) / 10
		temperature = float64(uint16(frame[2]&0x7f)<<8|uint16(frame[3])) / 10
		if frame[2]&0x80 != 0 {
			temperature = -temperature
		}

		return humidity, temperature, nil
	}

	humidity = float64(frame[0]) + float64(frame[1])/10
	temperature = float64(frame[2]) + float64(frame[3]&0x7f)/10
	if frame[3]&0x80 != 0 {
		temperature = -temperature
	}

	return humidity, temperature, nil
}
