package triage

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The opencensus view worker is started at init by the genai dependency tree.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}
