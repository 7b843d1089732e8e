package tickspec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dyluth/lstf/pkg/lstf"
)

// Parse parses a position specification into an absolute tick.
// Supports two formats:
//   - tick positions: "960t" (a non-negative integer with a 't' suffix)
//   - wall-clock offsets in Go duration format: "1.5s", "2m3s", "500ms"
//
// Wall-clock offsets are measured from tick 0 and converted through the
// program's tempo map.
func Parse(spec string, tempo *lstf.TempoMap) (uint64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty position specification")
	}

	// Tick form first: it is unambiguous.
	if strings.HasSuffix(spec, "t") {
		tick, err := strconv.ParseUint(strings.TrimSuffix(spec, "t"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid tick position: %s", spec)
		}
		return tick, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("position must not be negative: %s", spec)
		}
		return tickAtMicros(tempo, d.Microseconds())
	}

	return 0, fmt.Errorf("invalid position specification: %s (use ticks like '960t' or a duration like '1.5s')", spec)
}

// tickAtMicros inverts the tempo map: the largest tick whose wall-clock
// position is at or before target. The map is monotonic, so an exponential
// probe followed by a binary search over MicrosAt suffices.
func tickAtMicros(tempo *lstf.TempoMap, target int64) (uint64, error) {
	if target <= 0 {
		return 0, nil
	}

	hi := uint64(1)
	for {
		micros, err := tempo.MicrosAt(hi)
		if err != nil {
			return 0, err
		}
		if micros > target {
			break
		}
		if hi >= 1<<62 {
			return 0, fmt.Errorf("position %dµs is beyond the representable tick range", target)
		}
		hi *= 2
	}

	lo := hi / 2
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		micros, err := tempo.MicrosAt(mid)
		if err != nil {
			return 0, err
		}
		if micros <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
