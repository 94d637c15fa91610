package xvclog

import "testing"

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	l := New("not-a-level")
	if l.entry.Logger.GetLevel().String() != "info" {
		t.Fatalf("got level %s, want info", l.entry.Logger.GetLevel())
	}
}

func TestNewParsesValidLevel(t *testing.T) {
	l := New("debug")
	if l.entry.Logger.GetLevel().String() != "debug" {
		t.Fatalf("got level %s, want debug", l.entry.Logger.GetLevel())
	}
}

func TestWithInstanceAddsField(t *testing.T) {
	l := New("info").WithInstance("bench-a")
	if l.entry.Data["instance"] != "bench-a" {
		t.Fatalf("got fields %v", l.entry.Data)
	}
}

func TestWithSessionAddsField(t *testing.T) {
	l := New("info").WithInstance("bench-a").WithSession("10.0.0.1:5555")
	if l.entry.Data["instance"] != "bench-a" || l.entry.Data["session"] != "10.0.0.1:5555" {
		t.Fatalf("got fields %v", l.entry.Data)
	}
}
