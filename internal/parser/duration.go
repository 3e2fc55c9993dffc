package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseDuration converts a colon-delimited length such as "3:45" or "1:02:03"
// to a duration. Components are read right to left as seconds, minutes, hours
// and so on, each worth 60 times the previous one.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty length", ErrInvalidDuration)
	}

	var total int64
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: component %q of %q", ErrInvalidDuration, part, s)
		}
		if total > (maxSeconds-int64(n))/60 {
			return 0, fmt.Errorf("%w: %q overflows", ErrInvalidDuration, s)
		}
		total = total*60 + int64(n)
	}

	return time.Duration(total) * time.Second, nil
}
