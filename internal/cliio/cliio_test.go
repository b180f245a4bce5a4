package cliio

import (
	"strings"
	"testing"

	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/errlog"
	"github.com/turntablefw/ttcore/internal/hal"
	"github.com/turntablefw/ttcore/internal/hal/simrelay"
	"github.com/turntablefw/ttcore/internal/motor"
	"github.com/turntablefw/ttcore/internal/paramex"
	"github.com/turntablefw/ttcore/internal/persist"
	"github.com/turntablefw/ttcore/internal/statusbus"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := config.Default()
	ex := paramex.New()
	bus := statusbus.New()
	relays := simrelay.New()
	tb := hal.NewFakeTimebase()
	c := motor.New(&cfg, ex, bus, relays, tb)
	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	log, err := errlog.New(t.TempDir())
	if err != nil {
		t.Fatalf("errlog.New: %v", err)
	}
	return NewSession(c, &cfg, store, log, nil, bus)
}

func TestParseCommand(t *testing.T) {
	cmd := ParseCommand("  SET freq 55.0  ")
	if cmd.Name != "set" || len(cmd.Args) != 2 || cmd.Args[0] != "freq" || cmd.Args[1] != "55.0" {
		t.Fatalf("got %+v", cmd)
	}
}

func TestStartStopStatus(t *testing.T) {
	s := newTestSession(t)
	if out := s.HandleLine("start"); out != "ok\n" {
		t.Fatalf("start = %q", out)
	}
	out := s.HandleLine("status")
	if !strings.HasPrefix(out, "state=") || !strings.HasSuffix(out, "\n") {
		t.Fatalf("status = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	s := newTestSession(t)
	out := s.HandleLine("bogus")
	if !strings.Contains(out, "unknown command") {
		t.Fatalf("got %q", out)
	}
}

func TestGetSetFreq(t *testing.T) {
	s := newTestSession(t)
	if out := s.HandleLine("set freq 55.5"); out != "ok\n" {
		t.Fatalf("set = %q", out)
	}
	out := s.HandleLine("get freq")
	if strings.TrimSpace(out) != "55.5" {
		t.Fatalf("get freq = %q, want 55.5", out)
	}
}

func TestGetSetPitch(t *testing.T) {
	s := newTestSession(t)
	s.HandleLine("set pitch 12")
	out := s.HandleLine("get pitch")
	if strings.TrimSpace(out) != "12" {
		t.Fatalf("get pitch = %q, want 12", out)
	}
	s.HandleLine("p")
	out = s.HandleLine("get pitch")
	if strings.TrimSpace(out) != "0" {
		t.Fatalf("pitch after reset = %q, want 0", out)
	}
}

func TestUnknownKey(t *testing.T) {
	s := newTestSession(t)
	out := s.HandleLine("get bogus")
	if !strings.Contains(out, "unknown key") {
		t.Fatalf("got %q", out)
	}
}

func TestFactoryReset(t *testing.T) {
	s := newTestSession(t)
	s.HandleLine("set freq 999")
	if out := s.HandleLine("f"); out != "ok\n" {
		t.Fatalf("factory reset = %q", out)
	}
	out := s.HandleLine("get freq")
	if strings.TrimSpace(out) == "999" {
		t.Fatalf("factory reset did not restore defaults: %q", out)
	}
}

func TestErrorDumpEmpty(t *testing.T) {
	s := newTestSession(t)
	out := s.HandleLine("error dump")
	if out != "(empty)\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRun(t *testing.T) {
	s := newTestSession(t)
	var out strings.Builder
	in := strings.NewReader("start\nstatus\n")
	if err := s.Run(in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "state=") {
		t.Fatalf("output missing status line: %q", out.String())
	}
}
