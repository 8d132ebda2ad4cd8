package record

import "hash/crc32"

// Checksum computes the CRC32 checksum of b using the IEEE polynomial.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// ValidateChecksum returns true if the provided checksum matches the computed CRC32 of b
func ValidateChecksum(b []byte, checksum uint32) bool {
	return Checksum(b) == checksum
}
