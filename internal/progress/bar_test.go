package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestBar_Update(t *testing.T) {
	var buf bytes.Buffer

	b := NewBar(&buf, true)
	b.Update(1, 4, "pair 1-1")
	b.Update(2, 4, "pair 1-2")
	b.Finish()

	out := buf.String()

	if !strings.Contains(out, " 25% (1/4)") {
		t.Errorf("missing first frame in %q", out)
	}

	if !strings.Contains(out, " 50% (2/4)") {
		t.Errorf("missing second frame in %q", out)
	}

	// In-place redraws use carriage returns; the single newline comes from
	// Finish.
	if strings.Count(out, "\r") != 2 || strings.Count(out, "\n") != 1 {
		t.Errorf("unexpected line discipline in %q", out)
	}
}

func TestBar_Disabled(t *testing.T) {
	var buf bytes.Buffer

	b := NewBar(&buf, false)
	b.Update(1, 2, "pair")
	b.Finish()

	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}

func TestBar_FinishIsIdempotent(t *testing.T) {
	var buf bytes.Buffer

	b := NewBar(&buf, true)
	b.Update(2, 2, "done")
	b.Finish()
	b.Finish()

	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("Finish not idempotent: %q", buf.String())
	}
}

func TestBar_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer

	b := NewBar(&buf, true)
	b.Update(0, 0, "empty")

	if buf.Len() != 0 {
		t.Errorf("zero-total update wrote %q", buf.String())
	}
}
