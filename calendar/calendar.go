/*
Package calendar computes working days per region.

PURPOSE:
  Pure date arithmetic for the leave engine: whether a date counts as a
  working day, how many working days a range contains, and the first working
  day after a leave period ends.

TWO REGIONS:
  The company operates two independent non-working-day calendars:

  - RegionA: weekends ARE working days. Only dates explicitly listed in the
    Region A non-working set are excluded.
  - RegionB: Saturday/Sunday are never working days, plus the Region B
    non-working set.

CONFIG INJECTION:
  All functions are methods on an explicit Config snapshot. There is no
  hidden global calendar; callers resolve the active configuration once per
  operation and pass it down.

PRECISION:
  Day counts are decimal.Decimal so that half-day requests (0.5) are exact.

SEE ALSO:
  - date.go: The Date value type
  - leave package: Consumers of WorkingDays/ReturnDate
*/
package calendar

import (
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REGIONS
// =============================================================================

// Region selects which non-working-day calendar applies to an employee.
type Region string

const (
	RegionA Region = "region_a"
	RegionB Region = "region_b"
)

// Valid reports whether r is one of the two known regions.
func (r Region) Valid() bool { return r == RegionA || r == RegionB }

// WeekendsOff reports whether weekends are non-working for this region.
func (r Region) WeekendsOff() bool { return r == RegionB }

// =============================================================================
// NON-WORKING DAY CONFIGURATION
// =============================================================================

// NonWorkingDay is a single configured non-working date with a display label.
type NonWorkingDay struct {
	Date  Date
	Label string
}

// Config holds the two non-working-day sets. Administrative mutation and
// engine reads may run concurrently, so the sets are guarded by a lock.
type Config struct {
	mu   sync.RWMutex
	days map[Region]map[Date]string
}

func NewConfig() *Config {
	return &Config{days: map[Region]map[Date]string{
		RegionA: {},
		RegionB: {},
	}}
}

// AddNonWorkingDay records a non-working date for a region.
func (c *Config) AddNonWorkingDay(region Region, date Date, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.days[region] == nil {
		c.days[region] = map[Date]string{}
	}
	c.days[region][date] = label
}

// RemoveNonWorkingDay drops a configured non-working date.
func (c *Config) RemoveNonWorkingDay(region Region, date Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.days[region], date)
}

// NonWorkingDays returns the configured dates for a region, unordered.
func (c *Config) NonWorkingDays(region Region) []NonWorkingDay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []NonWorkingDay
	for d, label := range c.days[region] {
		out = append(out, NonWorkingDay{Date: d, Label: label})
	}
	return out
}

// Label returns the label for a configured non-working date, if any.
func (c *Config) Label(region Region, date Date) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	label, ok := c.days[region][date]
	return label, ok
}

// =============================================================================
// WORKING DAY CALCULATIONS
// =============================================================================

// HalfDay is the day count of a half-day request.
var HalfDay = decimal.NewFromFloat(0.5)

var one = decimal.NewFromInt(1)

// IsWorkingDay reports whether date is a working day for the region.
// Region B excludes weekends and its non-working set; Region A excludes only
// its non-working set.
func (c *Config) IsWorkingDay(date Date, region Region) bool {
	if region.WeekendsOff() && date.IsWeekend() {
		return false
	}
	c.mu.RLock()
	_, listed := c.days[region][date]
	c.mu.RUnlock()
	return !listed
}

// WorkingDays counts working days in the inclusive range [start, end].
// Returns zero for an inverted range.
func (c *Config) WorkingDays(start, end Date, region Region) decimal.Decimal {
	total := decimal.Zero
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if c.IsWorkingDay(d, region) {
			total = total.Add(one)
		}
	}
	return total
}

// RequestDays is WorkingDays with the half-day short circuit: a half-day
// request is always 0.5 days regardless of the calendar.
func (c *Config) RequestDays(start, end Date, region Region, halfDay bool) decimal.Decimal {
	if halfDay {
		return HalfDay
	}
	return c.WorkingDays(start, end, region)
}

// ReturnDate returns the first working day strictly after end.
func (c *Config) ReturnDate(end Date, region Region) Date {
	d := end.AddDays(1)
	for !c.IsWorkingDay(d, region) {
		d = d.AddDays(1)
	}
	return d
}
