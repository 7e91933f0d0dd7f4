package registry

import (
	"sort"
	"strings"
)

// DevicesInRoom returns all devices whose room name matches exactly,
// case-insensitively. The room query is normalised the same way as device
// queries so "living_room" finds "Living Room".
func (r *Registry) DevicesInRoom(room string) []Device {
	target := strings.ToLower(Normalize(room))
	if target == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Device
	for i := range r.devices {
		if strings.ToLower(r.devices[i].Room) == target {
			out = append(out, *r.devices[i].Clone())
		}
	}
	return out
}

// Rooms derives room summaries by grouping devices on their room name.
// Devices with no room are omitted. Results are sorted by room name.
func (r *Registry) Rooms() []RoomSummary {
	r.mu.RLock()
	byName := make(map[string]*RoomSummary)
	for i := range r.devices {
		room := r.devices[i].Room
		if room == "" {
			continue
		}
		sum, ok := byName[room]
		if !ok {
			sum = &RoomSummary{Name: room}
			byName[room] = sum
		}
		sum.DeviceCount++
		if r.devices[i].IsOn {
			sum.OnCount++
		}
	}
	r.mu.RUnlock()

	out := make([]RoomSummary, 0, len(byName))
	for _, sum := range byName {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
