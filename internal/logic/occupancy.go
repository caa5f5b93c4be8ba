package logic

import (
	"errors"
	"fmt"
	"time"
)

// Role says which way a crossing moves the occupancy count. It comes from how
// the sensor is installed (on the way in or on the way out), not from the
// readings.
type Role string

const (
	RoleNone  Role = ""
	RoleEntry Role = "entry"
	RoleExit  Role = "exit"
)

// ParseRole converts a flag value into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleNone, RoleEntry, RoleExit:
		return r, nil
	}
	return RoleNone, fmt.Errorf("unknown role %q (want entry or exit)", s)
}

// Delta returns the signed occupancy change of one crossing.
func (r Role) Delta() int {
	switch r {
	case RoleEntry:
		return 1
	case RoleExit:
		return -1
	}
	return 0
}

// Occupancy and capacity travel as unsigned 16-bit values; 0xFFFF is reserved
// as the sensor update packet header.
const (
	MaxOccupancy = 0xFFFF - 1
	MaxCapacity  = 0xFFFF - 1
)

// ErrInvalidCapacity is returned for a capacity outside [1, MaxCapacity].
var ErrInvalidCapacity = errors.New("capacity must be in [1, 65535)")

// Occupancy is an in-memory people count bounded to [0, MaxOccupancy].
// It may exceed Capacity; Capacity is reported alongside, not enforced.
type Occupancy struct {
	count    int
	capacity int
}

// NewOccupancy returns an empty Occupancy for the given capacity.
func NewOccupancy(capacity int) (*Occupancy, error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Occupancy{capacity: capacity}, nil
}

// Apply adds the signed deltas of one update, possibly from several sensors,
// and clamps the result. The clamp is applied to the sum, not per delta.
func (o *Occupancy) Apply(deltas ...int) int {
	for _, d := range deltas {
		o.count += d
	}
	if o.count < 0 {
		o.count = 0
	}
	if o.count > MaxOccupancy {
		o.count = MaxOccupancy
	}
	return o.count
}

// Count returns the current occupancy.
func (o *Occupancy) Count() int {
	return o.count
}

// Capacity returns the configured capacity.
func (o *Occupancy) Capacity() int {
	return o.capacity
}

// Full reports whether occupancy has reached capacity.
func (o *Occupancy) Full() bool {
	return o.count >= o.capacity
}

// OccupancyReport is a point-in-time occupancy value for periodic publishing.
type OccupancyReport struct {
	Timestamp time.Time
	Role      Role
	Occupancy int
	Capacity  int
}
