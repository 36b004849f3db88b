package model

import (
	"fmt"
	"strconv"
	"strings"
)

// IconVariants is the number of default avatar images.
const IconVariants = 4

// snowflakeTimestampShift drops the worker/sequence bits of a snowflake id.
const snowflakeTimestampShift = 22

// MemberID builds the composite key of a server member.
func MemberID(serverID, userID string) string {
	return serverID + "-" + userID
}

// OtherParty returns whichever of a and b is not meID. Friends and friend
// requests are keyed by the other party.
func OtherParty(meID, a, b string) string {
	if a == meID {
		return b
	}
	return a
}

// CompareIDs orders identifiers. Ids are split on '-' and compared segment by
// segment; all-digit segments compare numerically, anything else compares
// lexicographically.
func CompareIDs(a, b string) int {
	for {
		as, arest, amore := strings.Cut(a, "-")
		bs, brest, bmore := strings.Cut(b, "-")

		if c := compareSegment(as, bs); c != 0 {
			return c
		}

		switch {
		case !amore && !bmore:
			return 0
		case !amore:
			return -1
		case !bmore:
			return 1
		}
		a, b = arest, brest
	}
}

func compareSegment(a, b string) int {
	if isDigits(a) && isDigits(b) {
		ta := strings.TrimLeft(a, "0")
		tb := strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			if len(ta) < len(tb) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
		// "003" and "3" are equal numbers but distinct keys.
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IconBucket maps an identifier to one of IconVariants default icons. Ids that
// are not snowflakes fall back to id "1".
func IconBucket(id string) int {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		n = 1
	}
	return int((n >> snowflakeTimestampShift) % IconVariants)
}

// IconURL returns the default icon path for a "user", "server" or "app" id.
func IconURL(kind, id string) string {
	return fmt.Sprintf("/%s-icons/%d.svg", kind, IconBucket(id))
}
