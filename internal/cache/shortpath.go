package cache

// isSingleByte reports whether every byte of s is plain ASCII.
func isSingleByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
