package util

import "fmt"

// IntLowHigh encodes n as b little-endian bytes (1-4), the way ESC/POS
// command parameters are laid out.
func IntLowHigh(n int, b int) ([]byte, error) {
	if b < 1 || b > 4 {
		return nil, fmt.Errorf("IntLowHigh: 1-4 bytes only, got %d", b)
	}
	if limit := 1<<(8*uint(b)) - 1; n < 0 || n > limit {
		return nil, fmt.Errorf("IntLowHigh: %d does not fit in %d byte(s) (max %d)", n, b, limit)
	}

	out := make([]byte, b)
	for i := 0; i < b; i++ {
		out[i] = byte(n % 256)
		n = n / 256
	}
	return out, nil
}
