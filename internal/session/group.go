package session

import (
	"sort"
	"strings"
	"time"
)

// ProjectGroup holds the sessions recorded for one working
// directory, most recent first.
type ProjectGroup struct {
	Key      string
	Sessions []Descriptor
}

// TotalSize sums the size of every session log in the group.
func (g ProjectGroup) TotalSize() int64 {
	var total int64
	for _, s := range g.Sessions {
		total += s.Size
	}
	return total
}

// Latest returns the newest modification time in the group.
func (g ProjectGroup) Latest() time.Time {
	if len(g.Sessions) == 0 {
		return time.Time{}
	}
	return g.Sessions[0].ModTime
}

// Oldest returns the oldest modification time in the group.
func (g ProjectGroup) Oldest() time.Time {
	var oldest time.Time
	for i, s := range g.Sessions {
		if i == 0 || s.ModTime.Before(oldest) {
			oldest = s.ModTime
		}
	}
	return oldest
}

// Group buckets descriptors by GroupKey. Sessions inside a group
// are ordered newest first; groups are ordered by session count,
// largest first, then by key.
func Group(ds []Descriptor) []ProjectGroup {
	index := make(map[string]int)
	var groups []ProjectGroup
	for _, d := range ds {
		key := d.GroupKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ProjectGroup{Key: key})
		}
		groups[i].Sessions = append(groups[i].Sessions, d)
	}
	for i := range groups {
		SortByRecency(groups[i].Sessions)
	}
	sortGroups(groups)
	return groups
}

func sortGroups(groups []ProjectGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		ni, nj := len(groups[i].Sessions), len(groups[j].Sessions)
		if ni != nj {
			return ni > nj
		}
		return groups[i].Key < groups[j].Key
	})
}

// FilterProject keeps groups whose key contains substr, ignoring
// case. An empty substr keeps everything.
func FilterProject(groups []ProjectGroup, substr string) []ProjectGroup {
	if substr == "" {
		return groups
	}
	needle := strings.ToLower(substr)
	var out []ProjectGroup
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Key), needle) {
			out = append(out, g)
		}
	}
	return out
}

// FilterSince drops sessions modified at or before cutoff,
// removes groups left empty and reorders the rest by size.
func FilterSince(groups []ProjectGroup, cutoff time.Time) []ProjectGroup {
	var out []ProjectGroup
	for _, g := range groups {
		var kept []Descriptor
		for _, s := range g.Sessions {
			if s.ModTime.After(cutoff) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, ProjectGroup{Key: g.Key, Sessions: kept})
	}
	sortGroups(out)
	return out
}

// Totals returns the session count and byte size across groups.
func Totals(groups []ProjectGroup) (sessions int, size int64) {
	for _, g := range groups {
		sessions += len(g.Sessions)
		size += g.TotalSize()
	}
	return sessions, size
}
