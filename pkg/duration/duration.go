// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	// dayRegex matches day and week based values, e.g. "1d", "2w"
	dayRegex = regexp.MustCompile(`^(\d+)([dw])$`)

	// ErrInvalidFormat indicates an invalid duration format
	ErrInvalidFormat = errors.New("invalid duration format")
)

const Day = 24 * time.Hour

// Parse accepts Go duration strings ("36h", "90m", "1h30m") plus the
// calendar shorthands "Nd" and "Nw". Negative values are rejected.
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, ErrInvalidFormat
	}

	if m := dayRegex.FindStringSubmatch(s); len(m) == 3 {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		if m[2] == "w" {
			return time.Duration(value) * 7 * Day, nil
		}
		return time.Duration(value) * Day, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
	}
	return d, nil
}

// ParseOr returns def when s is empty.
func ParseOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return Parse(s)
}

func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("duration: parse error: %v", err))
	}
	return d
}

// DaysBetween counts calendar days from a to b, both taken in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / Day)
}
