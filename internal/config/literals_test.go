package config

import (
	"testing"
	"time"

	"github.com/fenilsonani/hunt/internal/walker"
)

func TestParseSizeLiteral(t *testing.T) {
	tests := []struct {
		name    string
		lit     string
		wantOp  walker.SizeOp
		wantLen int64
	}{
		{"plain bytes", "512", walker.SizeEqual, 512},
		{"at least kilobytes decimal", "+1k", walker.SizeAtLeast, 1000},
		{"at least kibibytes binary", "+1ki", walker.SizeAtLeast, 1024},
		{"at most mebibytes explicit Mi", "-10Mi", walker.SizeAtMost, 10 * (1 << 20)},
		{"gigabytes decimal", "+2g", walker.SizeAtLeast, 2_000_000_000},
		{"fractional", "+1.5k", walker.SizeAtLeast, 1500},
		{"whitespace", " +1 K ", walker.SizeAtLeast, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseSizeLiteral(tt.lit)
			if err != nil {
				t.Fatalf("ParseSizeLiteral(%q) error: %v", tt.lit, err)
			}
			if c.Op != tt.wantOp || c.Bytes != tt.wantLen {
				t.Errorf("ParseSizeLiteral(%q) = {%v %d}, want {%v %d}", tt.lit, c.Op, c.Bytes, tt.wantOp, tt.wantLen)
			}
		})
	}
}

func TestParseSizeLiteralInvalid(t *testing.T) {
	for _, lit := range []string{"", "abc", "10Q", "++10k"} {
		if _, err := ParseSizeLiteral(lit); err == nil {
			t.Errorf("expected ParseSizeLiteral(%q) to fail", lit)
		}
	}
}

func TestParseTimeLiteralEpoch(t *testing.T) {
	now := time.Now()
	got, err := ParseTimeLiteral("@1700000000", now)
	if err != nil {
		t.Fatalf("ParseTimeLiteral error: %v", err)
	}
	if got.Unix() != 1700000000 {
		t.Errorf("got unix %d, want 1700000000", got.Unix())
	}
}

func TestParseTimeLiteralRelative(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		lit  string
		want time.Time
	}{
		{"1d", now.AddDate(0, 0, -1)},
		{"2weeks", now.AddDate(0, 0, -14)},
		{"3mo", now.AddDate(0, -3, 0)},
		{"1y", now.AddDate(-1, 0, 0)},
		{"30m", now.Add(-30 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			got, err := ParseTimeLiteral(tt.lit, now)
			if err != nil {
				t.Fatalf("ParseTimeLiteral(%q) error: %v", tt.lit, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimeLiteral(%q) = %v, want %v", tt.lit, got, tt.want)
			}
		})
	}
}

func TestParseTimeLiteralAbsolute(t *testing.T) {
	now := time.Now()
	got, err := ParseTimeLiteral("2024-01-15", now)
	if err != nil {
		t.Fatalf("ParseTimeLiteral error: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 15 {
		t.Errorf("got %v, want 2024-01-15", got)
	}
}

func TestParseTimeLiteralInvalid(t *testing.T) {
	if _, err := ParseTimeLiteral("not-a-date", time.Now()); err == nil {
		t.Error("expected an error for an unparseable time literal")
	}
}
