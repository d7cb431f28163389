package timetable

// ResourceID identifies a room or a teacher. Rooms and teachers live in separate indexes.
type ResourceID int64

// EventID ties a booking back to the lesson or invigilation record that produced it.
type EventID string

// Booking is one occupied interval on a resource.
type Booking struct {
	Resource ResourceID `json:"resource"`
	Range    TimeRange  `json:"range"`
	Owner    EventID    `json:"owner_event_id,omitempty"`
}

// OccupancyIndex maps a resource to its booked intervals. Duplicates are allowed.
type OccupancyIndex map[ResourceID][]Booking

// Snapshot is the occupancy visible in one calendar viewing window.
type Snapshot struct {
	WindowStart   int64     `json:"window_start"`
	WindowEnd     int64     `json:"window_end"`
	Rooms         []Booking `json:"rooms"`
	Invigilations []Booking `json:"invigilations"`
}

// Window returns the snapshot's viewing window as a range.
func (s Snapshot) Window() TimeRange {
	return TimeRange{Start: s.WindowStart, End: s.WindowEnd}
}

// BuildIndex groups bookings by resource, keeping the input order inside each bucket.
func BuildIndex(bookings []Booking) OccupancyIndex {
	index := make(OccupancyIndex)
	for _, b := range bookings {
		index[b.Resource] = append(index[b.Resource], b)
	}
	return index
}

// Bookings returns the bucket for a resource. A missing bucket is empty.
func (idx OccupancyIndex) Bookings(resource ResourceID) []Booking {
	return idx[resource]
}

// Len counts all bookings across every resource.
func (idx OccupancyIndex) Len() int {
	n := 0
	for _, bucket := range idx {
		n += len(bucket)
	}
	return n
}

// ExcludeOwn returns a copy of the index without any booking owned by owner.
func ExcludeOwn(idx OccupancyIndex, owner EventID) OccupancyIndex {
	out := make(OccupancyIndex, len(idx))
	for resource, bucket := range idx {
		kept := make([]Booking, 0, len(bucket))
		for _, b := range bucket {
			if owner != "" && b.Owner == owner {
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) > 0 {
			out[resource] = kept
		}
	}
	return out
}

// ExcludeExact returns a copy of the index without the first booking on resource whose range
// equals r. Only one booking is removed so that a second booking sharing the exact time still
// conflicts.
func ExcludeExact(idx OccupancyIndex, resource ResourceID, r TimeRange) OccupancyIndex {
	out := make(OccupancyIndex, len(idx))
	for res, bucket := range idx {
		if res != resource {
			out[res] = bucket
			continue
		}
		kept := make([]Booking, 0, len(bucket))
		removed := false
		for _, b := range bucket {
			if !removed && b.Range == r {
				removed = true
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) > 0 {
			out[res] = kept
		}
	}
	return out
}

// Exclude removes the edited booking from the index, by owner id when one is known and by exact
// time match otherwise. An owner id that matches no booking (a stale or un-owned snapshot row)
// also falls back to the exact match.
func Exclude(idx OccupancyIndex, original Booking) OccupancyIndex {
	if original.Owner != "" {
		out := ExcludeOwn(idx, original.Owner)
		if out.Len() < idx.Len() {
			return out
		}
	}
	return ExcludeExact(idx, original.Resource, original.Range)
}
