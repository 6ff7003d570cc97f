package semver

import (
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"
	debversion "github.com/knqyf263/go-deb-version"
)

func trimVersion(version string) string {
	return strings.TrimSpace(version)
}

// Compare returns -1, 0 or 1 when a is older than, equal to or newer than b.
// Semantic versions (with or without a leading "v") are compared first,
// then Debian-style versions (epochs, tildes), and anything else falls back
// to a plain string comparison, which keeps ISO-8601 timestamps in order.
func Compare(a, b string) int {
	a = trimVersion(a)
	b = trimVersion(b)

	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}

	da, errA := debversion.NewVersion(strings.TrimPrefix(a, "v"))
	db, errB := debversion.NewVersion(strings.TrimPrefix(b, "v"))
	if errA == nil && errB == nil {
		return da.Compare(db)
	}

	return strings.Compare(a, b)
}

// IsGreater compares two version strings and
// returns true if the second argument is greater than the first.
// So given versions v1 and v2, it returns true if v2 > v1.
// IsGreater("1.2.3", "1.2.4") returns true
// IsGreater("1.2.3", "1.2.3") returns false
// IsGreater("v1.2.3", "1.3.0") returns true
// Empty versions never compare greater.
func IsGreater(v1, v2 string) bool {
	if trimVersion(v1) == "" || trimVersion(v2) == "" {
		return false
	}
	return Compare(v2, v1) > 0
}

// SortDescending sorts versions newest first, in place.
func SortDescending(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) > 0
	})
}
