package testutils

import (
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

// TestFeature names firmware capabilities which not every watch or
// emulator build offers.
type TestFeature string

const (
	TestFeatureAppReorder TestFeature = "app-reorder"
	TestFeatureAppGlance  TestFeature = "app-glance"
)

var AllTestFeatures = []TestFeature{
	TestFeatureAppReorder,
	TestFeatureAppGlance,
}

// parseFeatureList reads a comma separated list such as "*,-app-glance".
// A "*" adds every known feature and a leading "-" removes one, entries are
// applied in order.
func parseFeatureList(list string) []TestFeature {
	feats := []TestFeature{}
	if list == "" {
		return feats
	}

	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)

		switch {
		case entry == "":
		case entry == "*":
			for _, feat := range AllTestFeatures {
				if !slices.Contains(feats, feat) {
					feats = append(feats, feat)
				}
			}
		case strings.HasPrefix(entry, "-"):
			idx := slices.Index(feats, TestFeature(entry[1:]))
			if idx >= 0 {
				feats = slices.Delete(feats, idx, idx+1)
			}
		default:
			feat := TestFeature(strings.TrimPrefix(entry, "+"))
			if !slices.Contains(feats, feat) {
				feats = append(feats, feat)
			}
		}
	}

	return feats
}

func SupportsFeature(feat TestFeature) bool {
	return slices.Contains(TestOpts.SupportedFeatures, feat)
}

func SkipIfUnsupportedFeature(t *testing.T, feat TestFeature) {
	if !SupportsFeature(feat) {
		t.Skipf("skipping unsupported feature (%s)", feat)
	}
}
