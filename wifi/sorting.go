package wifi

import "sort"

// SortEntries sorts scan entries in place for display.
// The sorting order is:
// 1. Stronger signal first.
// 2. Secured networks before open ones of the same strength.
// 3. Fallback to SSID alphabetically.
func SortEntries(entries []ScanEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a := entries[i]
		b := entries[j]

		if a.Strength() != b.Strength() {
			return a.Strength() > b.Strength()
		}

		platform := Platform{SupportsSAE: true}
		aOpen := platform.Classify(a.Capabilities) == SecurityOpen
		bOpen := platform.Classify(b.Capabilities) == SecurityOpen
		if aOpen != bOpen {
			return bOpen
		}

		return a.SSID < b.SSID
	})
}
