package text

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ErrTimezone is returned for timezones that are neither an IANA name nor a
// POSIX TZ string.
var ErrTimezone = errors.New("text: invalid timezone")

// LoadLocation resolves an IANA zone name ("Europe/Berlin") or a POSIX TZ
// string ("CET-1CEST,M3.5.0,M10.5.0/3"). The empty string is UTC.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	if strings.ContainsRune(tz, '/') && !strings.ContainsRune(tz, ',') {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, nil
		}
	}
	if loc, err := posixLocation(tz); err == nil {
		return loc, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTimezone, tz)
}

// posixLocation wraps a POSIX TZ string in a TZif blob without transitions,
// so the time package applies its rules (including DST) to every instant.
func posixLocation(tz string) (*time.Location, error) {
	name, offset, err := parsePOSIXStd(tz)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	header := func(typecnt, charcnt uint32) {
		b.WriteString("TZif2")
		b.Write(make([]byte, 15))
		for _, n := range []uint32{0, 0, 0, 0, typecnt, charcnt} {
			_ = binary.Write(&b, binary.BigEndian, n)
		}
	}

	// Empty version 1 block, the version 2 block carries the data.
	header(0, 0)
	header(1, uint32(len(name)+1))
	_ = binary.Write(&b, binary.BigEndian, int32(offset))
	b.WriteByte(0) // isdst
	b.WriteByte(0) // designation index
	b.WriteString(name)
	b.WriteByte(0)
	b.WriteString("\n" + tz + "\n")

	return time.LoadLocationFromTZData(tz, b.Bytes())
}

// parsePOSIXStd returns the standard time designation and its offset east
// of UTC in seconds. POSIX offsets count west of UTC, so "CET-1" is +3600.
func parsePOSIXStd(tz string) (name string, offset int, err error) {
	rest := tz
	if strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return "", 0, fmt.Errorf("%w: %q", ErrTimezone, tz)
		}
		name, rest = rest[1:end], rest[end+1:]
	} else {
		i := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
		if i < 0 {
			i = len(rest)
		}
		name, rest = rest[:i], rest[i:]
	}
	if len(name) < 3 {
		return "", 0, fmt.Errorf("%w: %q", ErrTimezone, tz)
	}

	sign := -1
	switch {
	case strings.HasPrefix(rest, "-"):
		sign, rest = 1, rest[1:]
	case strings.HasPrefix(rest, "+"):
		rest = rest[1:]
	}

	var (
		parts [3]int
		n     int
	)
	for n < 3 {
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			parts[n] = parts[n]*10 + int(rest[digits]-'0')
			digits++
		}
		if digits == 0 || digits > 3 {
			return "", 0, fmt.Errorf("%w: %q", ErrTimezone, tz)
		}
		rest = rest[digits:]
		n++
		if !strings.HasPrefix(rest, ":") {
			break
		}
		rest = rest[1:]
	}
	if parts[0] > 24 || parts[1] > 59 || parts[2] > 59 {
		return "", 0, fmt.Errorf("%w: %q", ErrTimezone, tz)
	}

	offset = sign * (parts[0]*3600 + parts[1]*60 + parts[2])
	return name, offset, nil
}
