// Package util holds small helpers shared by the table printers and series transforms.
package util

// IndentExpand repeats indent growth times
func IndentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}

// SliceMap applies lambda to every element of arr in place and returns arr.
func SliceMap(arr []float64, lambda func(float64) float64) []float64 {
	for i, v := range arr {
		arr[i] = lambda(v)
	}
	return arr
}

// CopySlice returns a copy of arr, or nil when arr is nil.
func CopySlice(arr []float64) []float64 {
	if arr == nil {
		return nil
	}
	out := make([]float64, len(arr))
	copy(out, arr)
	return out
}

// Tail returns a copy of the last n elements of arr.
func Tail(arr []float64, n int) []float64 {
	if n > len(arr) {
		n = len(arr)
	}
	if n <= 0 {
		return []float64{}
	}
	return CopySlice(arr[len(arr)-n:])
}
