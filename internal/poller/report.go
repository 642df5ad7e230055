package poller

import (
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/sensor"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	separatorWidth  = 40
)

// Report prints the operator console lines. It is separate from logging:
// logs go to stderr, the report to stdout.
type Report struct {
	w io.Writer
}

func NewReport(w io.Writer) *Report {
	return &Report{w: w}
}

func (r *Report) Banner(pin string) {
	fmt.Fprintln(r.w, "DHT11 Sensor Reader with InfluxDB Storage")
	fmt.Fprintf(r.w, "Connected to %s\n", pin)
	fmt.Fprintln(r.w, "Press Ctrl+C to exit")
	fmt.Fprintln(r.w)
}

// Reading prints the timestamp and both values. Fahrenheit is derived from
// the same Celsius value that is written to the sink.
func (r *Report) Reading(ts time.Time, reading sensor.Reading) {
	fmt.Fprintf(r.w, "[%s]\n", ts.Format(timestampLayout))
	fmt.Fprintf(r.w, "Temperature: %.1f°C (%.1f°F)\n", reading.TemperatureCelsius, reading.Fahrenheit())
	fmt.Fprintf(r.w, "Humidity: %.1f%%\n", reading.HumidityPercent)
}

func (r *Report) WriteResult(ok bool) {
	if ok {
		fmt.Fprintln(r.w, "✓ Data written to InfluxDB")
	} else {
		fmt.Fprintln(r.w, "✗ Failed to write to InfluxDB")
	}
	fmt.Fprintln(r.w, strings.Repeat("-", separatorWidth))
}

func (r *Report) ReadFailed(ts time.Time) {
	fmt.Fprintf(r.w, "[%s] Failed to read sensor data\n", ts.Format(timestampLayout))
}

func (r *Report) Interrupted() {
	fmt.Fprintln(r.w, "\nProgram interrupted by user")
}

func (r *Report) ProgramError(err error) {
	fmt.Fprintf(r.w, "Program error: %v\n", err)
}

func (r *Report) CleanupCompleted() {
	fmt.Fprintln(r.w, "Cleanup completed")
}
