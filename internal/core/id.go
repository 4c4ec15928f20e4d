package core

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// NewRecordID generates a primary key of the form
// "{kind}-{epoch-millis}-{random-suffix}". The suffix is nine base36
// characters, which keeps ids sortable by creation time while making
// collisions within the same millisecond vanishingly unlikely.
func NewRecordID(kind string) string {
	return fmt.Sprintf("%s-%d-%s", kind, time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fallback to the clock if the system randomness source fails.
		return strconv.FormatInt(time.Now().UnixNano(), 36)[:9]
	}
	s := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
	for len(s) < 9 {
		s = "0" + s
	}
	return s[:9]
}
