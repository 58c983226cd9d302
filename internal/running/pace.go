package running

import (
	"fmt"
	"math"
)

// epsilon absorbs float noise in products such as 5.0*1.05 before rounding.
const epsilon = 1e-9

// maxPaceMin caps the rendered pace so the minutes always fit an int.
const maxPaceMin = 1e6

// FormatPace renders minutes per kilometre as "M:SS /km".
// Seconds are rounded half away from zero (22.5s -> 23s) and a value of
// 60 carries into the minutes. A zero distance yields "0:00"; absurd
// inputs are clamped to the 0..maxPaceMin range.
func FormatPace(distanceKm, durationMin float64) string {
	if distanceKm <= epsilon {
		return "0:00"
	}

	pace := durationMin / distanceKm
	if math.IsNaN(pace) || pace <= 0 {
		return "0:00"
	}
	// 1e300 minutes over 1km would otherwise wrap around in int(minutes)
	pace = math.Min(pace, maxPaceMin)
	minutes := math.Floor(pace)
	seconds := math.Round((pace - minutes) * 60)
	if seconds >= 60 {
		minutes++
		seconds -= 60
	}

	return fmt.Sprintf("%d:%02d /km", int(minutes), int(seconds))
}
