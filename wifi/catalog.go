package wifi

// Catalog is the scan results split into networks the radio already knows
// and newly discovered ones.
type Catalog struct {
	Known  []ScanEntry
	Nearby []ScanEntry
}

// Merge removes later entries with an SSID that was already seen when
// dedupeByName is set, keeping the first occurrence in the original order.
// The first entry wins even if a later one has a stronger signal. Without
// dedupeByName the input is returned as is.
func Merge(entries []ScanEntry, dedupeByName bool) []ScanEntry {
	if !dedupeByName {
		return entries
	}
	seen := make(map[string]struct{}, len(entries))
	merged := make([]ScanEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.SSID]; ok {
			continue
		}
		seen[e.SSID] = struct{}{}
		merged = append(merged, e)
	}
	return merged
}

// PartitionKnown moves every entry whose SSID is configured out of entries
// and returns them. On return *entries holds only the nearby entries, so the
// caller's original slice contents must be considered consumed.
func PartitionKnown(entries *[]ScanEntry, configured []ConfiguredNetwork) []ScanEntry {
	ssids := make(map[string]struct{}, len(configured))
	for _, c := range configured {
		if c.SSID == "" {
			continue
		}
		ssids[c.SSID] = struct{}{}
	}

	var known []ScanEntry
	nearby := (*entries)[:0]
	for _, e := range *entries {
		if _, ok := ssids[e.SSID]; ok {
			known = append(known, e)
			continue
		}
		nearby = append(nearby, e)
	}
	// Clear the tail so dropped entries are not reachable through the old
	// backing array.
	tail := (*entries)[len(nearby):]
	for i := range tail {
		tail[i] = ScanEntry{}
	}
	*entries = nearby
	return known
}
