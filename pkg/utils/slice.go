package utils

// SliceContains reports whether v is present in arr.
func SliceContains[T comparable](arr []T, v T) bool {
	for _, vv := range arr {
		if vv == v {
			return true
		}
	}
	return false
}

// MustSliceConvert maps srcS through convert without error handling.
func MustSliceConvert[S, D any](srcS []S, convert func(src S) D) []D {
	res := make([]D, 0, len(srcS))
	for _, src := range srcS {
		res = append(res, convert(src))
	}
	return res
}
