package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestParseDurationDefault(t *testing.T) {
    if got := ParseDurationDefault("90m", time.Hour); got != 90*time.Minute {
        t.Fatalf("unexpected duration %v", got)
    }
    if got := ParseDurationDefault("bogus", time.Hour); got != time.Hour {
        t.Fatalf("expected default, got %v", got)
    }
}

func TestRound4(t *testing.T) {
    if got := Round4(0.123456); got != 0.1235 {
        t.Fatalf("unexpected rounding %v", got)
    }
    if got := Round4(-0.00004); got != 0.0 {
        t.Fatalf("unexpected rounding %v", got)
    }
}
