// Package timezone converts between the wall-clock values picked in the event
// editor and the UTC instants that are persisted.
package timezone

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zones must resolve on hosts without a system zoneinfo
)

// BrowserDefault is the timezone override meaning "use the client's own zone".
// Together with the empty string it performs no shift: the runtime's local
// zone is trusted.
const BrowserDefault = "DEFAULT"

// Direction selects the conversion performed by Resolve.
type Direction int

const (
	// Forward interprets a wall clock in the zone and yields the UTC instant.
	Forward Direction = iota
	// Reverse yields the wall clock that the zone shows for a UTC instant.
	Reverse
)

var (
	locMu    sync.RWMutex
	locCache = map[string]*time.Location{}
)

// IsDefault reports whether zone is unset or the browser-default sentinel.
func IsDefault(zone string) bool {
	zone = strings.TrimSpace(zone)
	return zone == "" || zone == BrowserDefault
}

// IsValidZone reports whether zone is the sentinel or a loadable IANA name.
func IsValidZone(zone string) bool {
	if IsDefault(zone) {
		return true
	}
	_, err := Location(zone)
	return err == nil
}

// Location resolves zone to a *time.Location. The sentinel resolves to time.Local.
func Location(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if IsDefault(zone) {
		return time.Local, nil
	}

	locMu.RLock()
	loc, ok := locCache[zone]
	locMu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	locMu.Lock()
	locCache[zone] = loc
	locMu.Unlock()
	return loc, nil
}

// locationOrLocal never fails; unknown zones are rejected at the request
// boundary, so falling back here only protects stale profiles.
func locationOrLocal(zone string) *time.Location {
	loc, err := Location(zone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ToInstant interprets the wall clock as if it were expressed in zone and
// returns the matching UTC instant. An unset or invalid LocalTime yields the
// zero time.
func ToInstant(local LocalTime, zone string) time.Time {
	if !local.Valid() {
		return time.Time{}
	}
	w := local.wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), locationOrLocal(zone)).UTC()
}

// ToLocal returns the wall clock a user in zone sees for instant.
func ToLocal(instant time.Time, zone string) LocalTime {
	if instant.IsZero() {
		return LocalTime{}
	}
	return FromTime(instant.In(locationOrLocal(zone)))
}

// Resolve is the single-call form of ToInstant and ToLocal. In Forward mode
// only the wall-clock fields of t are read; in Reverse mode t is an instant
// and the result carries the wall clock in UTC position.
func Resolve(t time.Time, zone string, dir Direction) time.Time {
	switch dir {
	case Reverse:
		return ToLocal(t, zone).Time()
	default:
		return ToInstant(FromTime(t), zone)
	}
}
