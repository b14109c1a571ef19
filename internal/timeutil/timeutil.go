// Package timeutil は秒数と時刻テキストの相互変換を提供する。
// H:MM:SS / MM:SS 形式、itunes:durationの各形式、WebVTTタイムスタンプを扱う。
package timeutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SecondsToClock は秒数を時刻テキストに整形する。
// 1時間以上は H:MM:SS、1時間未満は M:SS 形式で、分・秒は2桁ゼロ埋めする。
// 秒数は整数秒に切り捨てる。
func SecondsToClock(seconds float64) string {
	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ClockToSeconds は時刻テキストを秒数に変換する。
// 2要素は MM:SS、3要素は HH:MM:SS として解釈する。
// コロンを含まない整数はそのまま秒数として扱う。
// 数値でないセグメントは0として解釈する。
func ClockToSeconds(text string) float64 {
	parts := strings.Split(text, ":")

	switch len(parts) {
	case 2:
		return segment(parts[0])*60 + segment(parts[1])
	case 3:
		return segment(parts[0])*3600 + segment(parts[1])*60 + segment(parts[2])
	default:
		return segment(text)
	}
}

// VTTTimestampToSeconds はWebVTTタイムスタンプ HH:MM:SS[.mmm] を秒数に変換する。
// 小数秒はfloat秒として保持される。
func VTTTimestampToSeconds(text string) float64 {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return 0
	}

	hours := segment(parts[0])
	minutes := segment(parts[1])
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		seconds = 0
	}

	return hours*3600 + minutes*60 + seconds
}

// ParseDuration はitunes:duration文字列を秒数に変換する。
// H:MM:SS、MM:SS、秒数のみの各形式に対応する。
// 逆順分解による合算: 最後のセグメント=秒、次=分×60、次=時×3600。
func ParseDuration(duration string) int {
	if duration == "" {
		return 0
	}

	parts := strings.Split(duration, ":")
	seconds := 0

	// 末尾から 秒 → 分 → 時 の順に重み付けして合算する
	for i := 0; i < len(parts) && i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1-i]))
		if err != nil {
			v = 0
		}
		switch i {
		case 0:
			seconds += v
		case 1:
			seconds += v * 60
		case 2:
			seconds += v * 3600
		}
	}

	return seconds
}

// segment は時刻テキストの1セグメントを数値として解釈する。
// 数値でない場合は0を返す。
func segment(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
