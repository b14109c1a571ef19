package timeutil

import (
	"math"
	"testing"
)

func TestSecondsToClock_UnderOneHour(t *testing.T) {
	got := SecondsToClock(125)
	if got != "2:05" {
		t.Errorf("125秒 = %q, want \"2:05\"", got)
	}
}

func TestSecondsToClock_OverOneHour(t *testing.T) {
	got := SecondsToClock(3930)
	if got != "1:05:30" {
		t.Errorf("3930秒 = %q, want \"1:05:30\"", got)
	}
}

func TestSecondsToClock_Zero(t *testing.T) {
	got := SecondsToClock(0)
	if got != "0:00" {
		t.Errorf("0秒 = %q, want \"0:00\"", got)
	}
}

func TestSecondsToClock_FlooringFraction(t *testing.T) {
	got := SecondsToClock(59.9)
	if got != "0:59" {
		t.Errorf("59.9秒 = %q, want \"0:59\"（整数秒に切り捨て）", got)
	}
}

func TestClockToSeconds_TwoParts(t *testing.T) {
	got := ClockToSeconds("2:05")
	if got != 125 {
		t.Errorf("\"2:05\" = %v, want 125", got)
	}
}

func TestClockToSeconds_ThreeParts(t *testing.T) {
	got := ClockToSeconds("1:05:30")
	if got != 3930 {
		t.Errorf("\"1:05:30\" = %v, want 3930", got)
	}
}

func TestClockToSeconds_BareInteger(t *testing.T) {
	got := ClockToSeconds("90")
	if got != 90 {
		t.Errorf("\"90\" = %v, want 90（コロンなしは秒数そのまま）", got)
	}
}

func TestClockToSeconds_NonNumericSegment(t *testing.T) {
	got := ClockToSeconds("ab:30")
	if got != 30 {
		t.Errorf("\"ab:30\" = %v, want 30（数値でないセグメントは0）", got)
	}
}

func TestClockToSeconds_RoundTrip(t *testing.T) {
	// 任意の非負秒数 d について ClockToSeconds(SecondsToClock(d)) == floor(d)
	for _, d := range []float64{0, 1, 59, 60, 61, 599.7, 3599, 3600, 3661.2, 86399} {
		got := ClockToSeconds(SecondsToClock(d))
		if got != math.Floor(d) {
			t.Errorf("往復変換 d=%v: got %v, want %v", d, got, math.Floor(d))
		}
	}
}

func TestVTTTimestampToSeconds_WithMillis(t *testing.T) {
	got := VTTTimestampToSeconds("00:02:30.500")
	if got != 150.5 {
		t.Errorf("\"00:02:30.500\" = %v, want 150.5", got)
	}
}

func TestVTTTimestampToSeconds_WithoutMillis(t *testing.T) {
	got := VTTTimestampToSeconds("01:00:00")
	if got != 3600 {
		t.Errorf("\"01:00:00\" = %v, want 3600", got)
	}
}

func TestVTTTimestampToSeconds_Malformed(t *testing.T) {
	got := VTTTimestampToSeconds("02:30")
	if got != 0 {
		t.Errorf("2セグメントのVTTタイムスタンプ = %v, want 0", got)
	}
}

func TestParseDuration_HMMSS(t *testing.T) {
	got := ParseDuration("1:05:30")
	if got != 3930 {
		t.Errorf("\"1:05:30\" = %d, want 3930（3600+300+30）", got)
	}
}

func TestParseDuration_MMSS(t *testing.T) {
	got := ParseDuration("45:30")
	if got != 2730 {
		t.Errorf("\"45:30\" = %d, want 2730", got)
	}
}

func TestParseDuration_BareSeconds(t *testing.T) {
	got := ParseDuration("1800")
	if got != 1800 {
		t.Errorf("\"1800\" = %d, want 1800", got)
	}
}

func TestParseDuration_Empty(t *testing.T) {
	got := ParseDuration("")
	if got != 0 {
		t.Errorf("空文字列 = %d, want 0", got)
	}
}
