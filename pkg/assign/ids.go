package assign

// NextIDs returns count consecutive team numbers following existingMax.
func NextIDs(existingMax, count int) []int {
	if count <= 0 {
		return nil
	}
	if existingMax < 0 {
		existingMax = 0
	}
	ids := make([]int, count)
	for i := range ids {
		ids[i] = existingMax + 1 + i
	}
	return ids
}
