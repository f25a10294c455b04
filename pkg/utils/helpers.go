package utils

import "os"

// FileSize returns the size of a file in bytes, or 0 if it cannot be
// read.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// MiB converts a byte count to mebibytes.
func MiB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}

// Getenv returns the value of the environment variable or the
// fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
