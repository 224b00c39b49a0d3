package core

// Clone returns a copy of src that shares no storage with it.
func Clone(src []float64) []float64 {
	if src == nil {
		return nil
	}

	out := make([]float64, len(src))
	copy(out, src)

	return out
}

// Fill sets every value in buf to v.
func Fill(buf []float64, v float64) {
	for i := range buf {
		buf[i] = v
	}
}

// SplitDefined writes the defined samples of src into values (undefined
// samples become 0) and a 1/0 validity weight into mask. Both destinations
// must have len(src) elements.
func SplitDefined(values, mask, src []float64) {
	for i, v := range src {
		if IsDefined(v) {
			values[i] = v
			mask[i] = 1
			continue
		}

		values[i] = 0
		mask[i] = 0
	}
}
