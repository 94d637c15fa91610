package xvc

import "testing"

func TestGetInfoReply(t *testing.T) {
	got := string(getInfoReply(2048))
	want := "xvcServer_v1.0:2048\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLE32RoundTrip(t *testing.T) {
	v := uint32(0x01020304)
	if got := le32(putLE32(v)); got != v {
		t.Fatalf("got %#x, want %#x", got, v)
	}
}

func TestPeriodToHz(t *testing.T) {
	if got := periodToHz(1000); got != 1000000 {
		t.Fatalf("1000ns period = %d Hz, want 1000000", got)
	}
	if got := periodToHz(0); got != 0 {
		t.Fatalf("zero period should report 0 Hz, got %d", got)
	}
}

func TestHzToPeriodInverse(t *testing.T) {
	hz := uint32(2000000)
	period := hzToPeriod(hz)
	if got := periodToHz(period); got != hz {
		t.Fatalf("round trip: got %d Hz, want %d", got, hz)
	}
}
