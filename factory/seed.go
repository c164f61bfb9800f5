/*
Package factory provides JSON to Go seed-data conversion.

PURPOSE:
  Converts JSON seed definitions into domain objects - leave types,
  regional holiday calendars and an employee directory. This enables
  deployment-specific configuration without code changes: HR can maintain
  the holiday list and the leave type catalogue in JSON, and the factory
  creates the proper Go structs.

WHY JSON?
  - Non-developers can modify the holiday calendar
  - Easy integration with an admin UI
  - Version control for per-country configurations
  - Database storage of seed configs

JSON SCHEMA:
  {
    "leave_types": [
      {"id": "annual", "name": "Annual Leave", "half_day_capable": true},
      {"id": "care", "name": "Care Leave", "region_b_only": true}
    ],
    "non_working_days": [
      {"region": "region_b", "date": "2026-01-01", "label": "New Year"}
    ],
    "employees": [
      {"id": "e1", "name": "Dana", "manager_id": "m1", "region": "region_a"}
    ]
  }

USAGE:
  seed, err := factory.ParseSeed(jsonString)
  // or the built-in demo data set:
  seed, err := factory.ParseSeed(factory.DemoSeedJSON)
  err = factory.Apply(ctx, seed, store)

SEE ALSO:
  - leave/types.go:    Employee and Type definitions
  - calendar:          Region and non-working day semantics
  - cmd/server/main.go: Seeding on first boot
*/
package factory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SeedJSON is the JSON representation of a seed data set.
type SeedJSON struct {
	LeaveTypes     []LeaveTypeJSON     `json:"leave_types"`
	NonWorkingDays []NonWorkingDayJSON `json:"non_working_days"`
	Employees      []EmployeeJSON      `json:"employees"`
}

type LeaveTypeJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegionBOnly    bool   `json:"region_b_only"`
	HalfDayCapable bool   `json:"half_day_capable"`
}

type NonWorkingDayJSON struct {
	Region string `json:"region"`
	Date   string `json:"date"`
	Label  string `json:"label"`
}

type EmployeeJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ManagerID string `json:"manager_id"`
	Region    string `json:"region"`
}

// =============================================================================
// PARSED SEED
// =============================================================================

// Seed is the validated, typed form of a seed data set.
type Seed struct {
	Types     []*leave.Type
	Employees []*leave.Employee
	Calendar  *calendar.Config

	// nonWorkingDays keeps the flat list so Apply can persist each entry.
	nonWorkingDays []seedDay
}

type seedDay struct {
	Region calendar.Region
	Date   calendar.Date
	Label  string
}

// ParseSeed validates a JSON seed definition and converts it to domain
// objects.
func ParseSeed(jsonStr string) (*Seed, error) {
	var raw SeedJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, errors.Wrap(err, "invalid seed JSON")
	}

	seed := &Seed{Calendar: calendar.NewConfig()}
	now := time.Now().UTC()

	for _, t := range raw.LeaveTypes {
		if t.ID == "" || t.Name == "" {
			return nil, errors.Errorf("leave type needs id and name: %+v", t)
		}
		seed.Types = append(seed.Types, &leave.Type{
			ID:             t.ID,
			Name:           t.Name,
			RegionBOnly:    t.RegionBOnly,
			HalfDayCapable: t.HalfDayCapable,
			CreatedAt:      now,
		})
	}

	for _, d := range raw.NonWorkingDays {
		region := calendar.Region(d.Region)
		if !region.Valid() {
			return nil, errors.Errorf("unknown region %q", d.Region)
		}
		date, err := calendar.ParseDate(d.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "bad date %q", d.Date)
		}
		seed.Calendar.AddNonWorkingDay(region, date, d.Label)
		seed.nonWorkingDays = append(seed.nonWorkingDays, seedDay{region, date, d.Label})
	}

	for _, e := range raw.Employees {
		region := calendar.Region(e.Region)
		if !region.Valid() {
			return nil, errors.Errorf("unknown region %q for employee %q", e.Region, e.ID)
		}
		if e.ID == "" || e.Name == "" {
			return nil, errors.Errorf("employee needs id and name: %+v", e)
		}
		seed.Employees = append(seed.Employees, &leave.Employee{
			ID:        e.ID,
			Name:      e.Name,
			Email:     e.Email,
			ManagerID: e.ManagerID,
			Region:    region,
			CreatedAt: now,
		})
	}

	return seed, nil
}

// =============================================================================
// APPLY
// =============================================================================

// SeedStore is what Apply needs from storage.
type SeedStore interface {
	leave.EmployeeStore
	leave.TypeStore
	AddNonWorkingDay(ctx context.Context, region calendar.Region, date calendar.Date, label string) error
}

// Apply upserts the seed data into the store. Idempotent.
func Apply(ctx context.Context, seed *Seed, store SeedStore) error {
	for _, t := range seed.Types {
		if err := store.PutType(ctx, t); err != nil {
			return errors.Wrapf(err, "failed to seed leave type %q", t.ID)
		}
	}
	for _, e := range seed.Employees {
		if err := store.PutEmployee(ctx, e); err != nil {
			return errors.Wrapf(err, "failed to seed employee %q", e.ID)
		}
	}
	for _, d := range seed.nonWorkingDays {
		if err := store.AddNonWorkingDay(ctx, d.Region, d.Date, d.Label); err != nil {
			return errors.Wrapf(err, "failed to seed non-working day %s/%s", d.Region, d.Date)
		}
	}
	return nil
}

// =============================================================================
// BUILT-IN SEED
// =============================================================================

// DemoSeedJSON is a small working data set: a stock leave type catalogue,
// one year of Region B public holidays plus the Region A observed days, and
// a three-level demo org (admin -> manager -> employees across regions).
const DemoSeedJSON = `{
  "leave_types": [
    {"id": "annual", "name": "Annual Leave", "half_day_capable": true},
    {"id": "unpaid", "name": "Unpaid Leave"},
    {"id": "care", "name": "Care Leave", "region_b_only": true},
    {"id": "study", "name": "Study Leave", "half_day_capable": true}
  ],
  "non_working_days": [
    {"region": "region_b", "date": "2026-01-01", "label": "New Year"},
    {"region": "region_b", "date": "2026-04-03", "label": "Good Friday"},
    {"region": "region_b", "date": "2026-04-06", "label": "Easter Monday"},
    {"region": "region_b", "date": "2026-05-01", "label": "Labour Day"},
    {"region": "region_b", "date": "2026-12-25", "label": "Christmas Day"},
    {"region": "region_b", "date": "2026-12-26", "label": "Boxing Day"},
    {"region": "region_a", "date": "2026-01-01", "label": "New Year"},
    {"region": "region_a", "date": "2026-12-25", "label": "Christmas Day"}
  ],
  "employees": [
    {"id": "admin", "name": "Alex Admin", "email": "admin@example.com", "region": "region_b"},
    {"id": "mgr-1", "name": "Morgan Manager", "email": "morgan@example.com", "manager_id": "admin", "region": "region_b"},
    {"id": "emp-1", "name": "Dana Developer", "email": "dana@example.com", "manager_id": "mgr-1", "region": "region_a"},
    {"id": "emp-2", "name": "Sam Support", "email": "sam@example.com", "manager_id": "mgr-1", "region": "region_b"}
  ]
}`
