package domain

// DepartmentCounts tracks rows emitted per department code.
type DepartmentCounts map[string]int

// UnderCap reports whether another row may be emitted for dept.
func UnderCap(dept string, counts DepartmentCounts, limit int) bool {
	return counts[dept] < limit
}

// HasAnyImage reports whether at least one slot holds a path.
func HasAnyImage(images [ImageSlots]string) bool {
	for _, p := range images {
		if p != "" {
			return true
		}
	}
	return false
}

// PadImages copies up to ImageSlots paths into a fixed slot array; missing
// slots stay empty.
func PadImages(paths []string) [ImageSlots]string {
	var slots [ImageSlots]string
	copy(slots[:], paths)
	return slots
}
