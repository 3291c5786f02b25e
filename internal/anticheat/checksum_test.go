package anticheat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samuel-1-avson/Arcade-sub006/internal/domain"
)

func TestChecksum_Deterministic(t *testing.T) {
	session := domain.Session{
		UserID:       "alice",
		ChecksumSeed: "seed-1",
	}

	a := Checksum(session, 1234.5)
	b := Checksum(session, 1234.5)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256
}

func TestChecksum_InputSensitivity(t *testing.T) {
	base := domain.Session{UserID: "alice", ChecksumSeed: "seed-1"}
	baseSum := Checksum(base, 1000)

	otherSeed := base
	otherSeed.ChecksumSeed = "seed-2"
	assert.NotEqual(t, baseSum, Checksum(otherSeed, 1000))

	otherUser := base
	otherUser.UserID = "bob"
	assert.NotEqual(t, baseSum, Checksum(otherUser, 1000))

	assert.NotEqual(t, baseSum, Checksum(base, 1001))
}

func TestChecksum_FractionalScores(t *testing.T) {
	session := domain.Session{UserID: "alice", ChecksumSeed: "seed-1"}

	// 1000 and 1000.5 must not collide.
	assert.NotEqual(t, Checksum(session, 1000), Checksum(session, 1000.5))
}

func TestChecksumEqual(t *testing.T) {
	session := domain.Session{UserID: "alice", ChecksumSeed: "seed-1"}
	sum := Checksum(session, 1000)

	assert.True(t, ChecksumEqual(sum, sum))
	assert.False(t, ChecksumEqual("deadbeef", sum))
	assert.False(t, ChecksumEqual("", sum))
}
