package timetable

import "sort"

// ConflictResult describes how a proposed range collides on one resource.
type ConflictResult struct {
	Resource    ResourceID  `json:"resource"`
	Conflicting bool        `json:"conflicting"`
	Overlapping []TimeRange `json:"overlapping,omitempty"`
}

// ResourceAnnotation flags a picker option as conflicted.
type ResourceAnnotation struct {
	Resource    ResourceID `json:"resource"`
	Conflicting bool       `json:"conflicting"`
}

// HasConflict reports whether any booking on resource overlaps r.
func HasConflict(idx OccupancyIndex, resource ResourceID, r TimeRange) bool {
	for _, b := range idx[resource] {
		if Overlaps(b.Range, r) {
			return true
		}
	}
	return false
}

// HasAnyConflict reports whether any of the ranges conflicts on resource.
func HasAnyConflict(idx OccupancyIndex, resource ResourceID, ranges []TimeRange) bool {
	for _, r := range ranges {
		if HasConflict(idx, resource, r) {
			return true
		}
	}
	return false
}

// Check collects every booked range on resource that overlaps r.
func Check(idx OccupancyIndex, resource ResourceID, r TimeRange) ConflictResult {
	result := ConflictResult{Resource: resource}
	for _, b := range idx[resource] {
		if Overlaps(b.Range, r) {
			result.Overlapping = append(result.Overlapping, b.Range)
		}
	}
	result.Conflicting = len(result.Overlapping) > 0
	return result
}

// AnnotateConflicts flags each candidate resource and orders free ones first, keeping the input
// order otherwise. The result is for picker hinting only; save-time checks must use HasConflict
// against the freshest snapshot.
func AnnotateConflicts(idx OccupancyIndex, resources []ResourceID, ranges ...TimeRange) []ResourceAnnotation {
	out := make([]ResourceAnnotation, 0, len(resources))
	for _, resource := range resources {
		out = append(out, ResourceAnnotation{
			Resource:    resource,
			Conflicting: HasAnyConflict(idx, resource, ranges),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Conflicting && out[j].Conflicting
	})
	return out
}
