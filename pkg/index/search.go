package index

// search is a classic midpoint binary search. It stops at the first probe
// that hits key, so among duplicates any matching position may come back.
func search(keys []uint32, key uint32) (int, bool) {
	low, high := 0, len(keys)-1
	for low <= high {
		mid := int(uint(low+high) >> 1)
		switch k := keys[mid]; {
		case k < key:
			low = mid + 1
		case k > key:
			high = mid - 1
		default:
			return mid, true
		}
	}
	return 0, false
}

// lowerBound returns the first position i with keys[i] >= key.
func lowerBound(keys []uint32, key uint32) int {
	low, high := 0, len(keys)
	for low < high {
		mid := int(uint(low+high) >> 1)
		if keys[mid] < key {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// upperBound returns the first position i with keys[i] > key.
func upperBound(keys []uint32, key uint32) int {
	low, high := 0, len(keys)
	for low < high {
		mid := int(uint(low+high) >> 1)
		if keys[mid] <= key {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}
