package jobs

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLen  = 4
	suffixSpan = 36 * 36 * 36 * 36
	// largest multiple of suffixSpan that fits in a uint32
	suffixLimit = (1 << 32) / suffixSpan * suffixSpan
)

// code renders v (< suffixSpan) as four base36 digits.
func code(v uint32) string {
	var b [suffixLen]byte
	for i := suffixLen - 1; i >= 0; i-- {
		b[i] = alphabet[v%36]
		v /= 36
	}
	return string(b[:])
}

// suffix draws uniformly over all 36^4 codes. Draws past suffixLimit are
// thrown away so every code is equally likely.
func suffix() string {
	for {
		u := uuid.New()
		v := binary.BigEndian.Uint32(u[:4])
		if v < suffixLimit {
			return code(v % suffixSpan)
		}
	}
}

func stamp(prefix string, now time.Time) string {
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix()
}

// NewTicket returns PRESS-<unixMillis>-<4 base36>.
func NewTicket(now time.Time) string { return stamp("PRESS", now) }

// NewReceipt returns RCP-<unixMillis>-<4 base36>.
func NewReceipt(now time.Time) string { return stamp("RCP", now) }

// ValidTicket reports whether s has the shape NewTicket produces.
func ValidTicket(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != "PRESS" || len(parts[2]) != suffixLen {
		return false
	}
	if _, err := strconv.ParseUint(parts[1], 10, 64); err != nil {
		return false
	}
	for i := 0; i < suffixLen; i++ {
		if !strings.ContainsRune(alphabet, rune(parts[2][i])) {
			return false
		}
	}
	return true
}
