// Package sync implements the local-first synchronization engine.
package sync

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version tags field by field,
// numerically where both fields are numeric: "1.9.0" < "1.10.0", which
// a plain string compare would get wrong. Non-numeric fields fall back
// to string comparison. When one tag is a prefix of the other, the
// longer tag is newer.
//
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}

	af := strings.Split(a, ".")
	bf := strings.Split(b, ".")

	n := len(af)
	if len(bf) < n {
		n = len(bf)
	}

	for i := 0; i < n; i++ {
		an, aerr := strconv.Atoi(af[i])
		bn, berr := strconv.Atoi(bf[i])

		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}

		if af[i] != bf[i] {
			if af[i] < bf[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(af) < len(bf):
		return -1
	case len(af) > len(bf):
		return 1
	}
	return 0
}
