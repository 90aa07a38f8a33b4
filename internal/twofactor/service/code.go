package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"edgeguard/internal/twofactor/models"
)

// backupAlphabet excludes 0/O, 1/I and vowels so codes stay unambiguous
// when read aloud or transcribed.
const backupAlphabet = "23456789BCDFGHJKMNPQRSTVWXZ"

const backupSegmentLength = 4

// generateCode returns a uniformly random numeric code of the standard
// length, leading zeros preserved.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for range models.CodeLength {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", models.CodeLength, n), nil
}

// generateBackupCode returns a code in XXXX-XXXX form drawn from the
// backup alphabet.
func generateBackupCode() (string, error) {
	var b strings.Builder
	size := big.NewInt(int64(len(backupAlphabet)))
	for i := range backupSegmentLength * 2 {
		if i == backupSegmentLength {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(backupAlphabet[n.Int64()])
	}
	return b.String(), nil
}
