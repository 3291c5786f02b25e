package anticheat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

// Checksum returns the digest binding a submitted score to the session
// that produced it. It is a pure function of (seed, userID, score): same
// inputs always yield the same output. A client that never held the
// session's seed cannot reproduce it.
func Checksum(session domain.Session, score float64) string {
	return checksumFrom(session.ChecksumSeed, session.UserID, score)
}

func checksumFrom(seed, userID string, score float64) string {
	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(userID))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatFloat(score, 'f', -1, 64)))
	return hex.EncodeToString(mac.Sum(nil))
}

// ChecksumEqual compares a submitted checksum against the recomputed one
// in constant time.
func ChecksumEqual(submitted, computed string) bool {
	return hmac.Equal([]byte(submitted), []byte(computed))
}
