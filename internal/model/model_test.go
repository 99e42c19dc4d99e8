package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestScanOutcome(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("clean outcome has no signature", func(t *testing.T) {
		t.Parallel()

		o := NewCleanOutcome("stream: OK", at)
		if o.Infected {
			t.Error("expected clean outcome")
		}
		if o.SignatureName != "" {
			t.Errorf("expected empty signature, got %q", o.SignatureName)
		}
		if o.Verdict() != VerdictClean {
			t.Errorf("expected verdict %q, got %q", VerdictClean, o.Verdict())
		}
		if o.Label() != "OK" {
			t.Errorf("expected label 'OK', got %q", o.Label())
		}
		if !o.ObservedAt.Equal(at) {
			t.Errorf("expected ObservedAt %v, got %v", at, o.ObservedAt)
		}
	})

	t.Run("infected outcome carries signature", func(t *testing.T) {
		t.Parallel()

		o := NewInfectedOutcome("Eicar-Test-Signature", "stream: Eicar-Test-Signature FOUND", at)
		if !o.Infected {
			t.Error("expected infected outcome")
		}
		if o.Verdict() != VerdictInfected {
			t.Errorf("expected verdict %q, got %q", VerdictInfected, o.Verdict())
		}
		if o.Label() != "Eicar-Test-Signature" {
			t.Errorf("expected label to be the signature, got %q", o.Label())
		}
	})

	t.Run("clean outcome omits signature in JSON", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewCleanOutcome("stream: OK", at))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(string(data), "signature_name") {
			t.Errorf("expected signature_name to be omitted, got %s", data)
		}
	})
}

func TestNewFileScanRecord(t *testing.T) {
	t.Parallel()

	o := NewInfectedOutcome("Win.Test", "stream: Win.Test FOUND", time.Now())
	r := NewFileScanRecord(o, "a.bin", "SHA-256", "abc123")

	if r.FileName != "a.bin" {
		t.Errorf("expected file name 'a.bin', got %q", r.FileName)
	}
	if r.HashAlgorithm != "SHA-256" {
		t.Errorf("expected algorithm 'SHA-256', got %q", r.HashAlgorithm)
	}
	if r.ContentHash != "abc123" {
		t.Errorf("expected hash 'abc123', got %q", r.ContentHash)
	}
	if !r.Infected || r.SignatureName != "Win.Test" {
		t.Errorf("expected embedded outcome to be preserved, got %+v", r.ScanOutcome)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Now()
	records := []FileScanRecord{
		NewFileScanRecord(NewCleanOutcome("stream: OK", now), "a", "SHA-256", "1"),
		NewFileScanRecord(NewInfectedOutcome("X", "stream: X FOUND", now), "b", "SHA-256", "2"),
		NewFileScanRecord(NewCleanOutcome("stream: OK", now), "c", "SHA-256", "3"),
		NewFileScanRecord(NewInfectedOutcome("Y", "stream: Y FOUND", now), "d", "SHA-256", "4"),
	}

	s := Summarize(records)
	if s.Total != 4 {
		t.Errorf("expected total 4, got %d", s.Total)
	}
	if s.Clean != 2 {
		t.Errorf("expected 2 clean, got %d", s.Clean)
	}
	if s.Infected != 2 {
		t.Errorf("expected 2 infected, got %d", s.Infected)
	}
	if len(s.InfectedFiles) != 2 || s.InfectedFiles[0] != "b" || s.InfectedFiles[1] != "d" {
		t.Errorf("expected infected files [b d], got %v", s.InfectedFiles)
	}
	if !s.HasInfected() {
		t.Error("expected HasInfected to be true")
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.HasInfected() {
		t.Errorf("expected empty summary, got %+v", empty)
	}
}
