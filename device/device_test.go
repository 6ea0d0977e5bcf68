package device

import "strings"
import "testing"

func TestReport(t *testing.T) {
	r := Report()
	if !strings.Contains(r, "workers") || !strings.Contains(r, "cuda") {
		t.Errorf("unexpected report %q", r)
	}
}
