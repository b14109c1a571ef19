// Package chapters はチャプターファイルの取得とパースを提供する。
// JSON（PSC形式・配列形式）とWebVTTの両形式に対応する。
package chapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hitoshi/podcheck/internal/model"
	"github.com/hitoshi/podcheck/internal/timeutil"
)

// defaultChapterTitle はtitle省略時のチャプタータイトル。
const defaultChapterTitle = "Untitled Chapter"

// jsonChapter はJSONチャプターの1エントリ。
// PSC形式のキーと配列形式の別名キー（start/name/image/link）の両方を受ける。
type jsonChapter struct {
	StartTime *float64 `json:"startTime"`
	Start     *float64 `json:"start"`
	Title     string   `json:"title"`
	Name      string   `json:"name"`
	Img       string   `json:"img"`
	Image     string   `json:"image"`
	URL       string   `json:"url"`
	Link      string   `json:"link"`
}

// pscDocument はPSC (Podcast Standard Chapters) 形式のドキュメント。
type pscDocument struct {
	Version  string        `json:"version"`
	Chapters []jsonChapter `json:"chapters"`
}

// ParseJSONChapters はJSONチャプタードキュメントをパースする。
// PSC形式 {version, chapters:[...]} と素の配列形式の2つに対応し、
// どちらでもない場合はエラーを返す。チャプター数と順序は入力を保持する。
func ParseJSONChapters(data []byte) (*model.ChaptersData, error) {
	trimmed := bytes.TrimSpace(data)

	// 素の配列形式
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []jsonChapter
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("JSONチャプター配列のパースに失敗しました: %w", err)
		}
		return buildChapters("1.0", raw), nil
	}

	// PSC形式
	var doc pscDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("JSONチャプターのパースに失敗しました: %w", err)
	}
	if doc.Version == "" && doc.Chapters == nil {
		return nil, fmt.Errorf("認識できないJSONチャプター形式です")
	}

	version := doc.Version
	if version == "" {
		version = "1.0"
	}
	return buildChapters(version, doc.Chapters), nil
}

// buildChapters はJSONエントリをチャプターモデルに変換する。
// 欠けているフィールドはデフォルト値で補う。
func buildChapters(version string, raw []jsonChapter) *model.ChaptersData {
	chapters := make([]model.Chapter, 0, len(raw))
	for _, c := range raw {
		ch := model.Chapter{
			Title: firstNonEmpty(c.Title, c.Name, defaultChapterTitle),
			Img:   firstNonEmpty(c.Img, c.Image),
			URL:   firstNonEmpty(c.URL, c.Link),
		}
		if c.StartTime != nil {
			ch.StartTime = *c.StartTime
		} else if c.Start != nil {
			ch.StartTime = *c.Start
		}
		chapters = append(chapters, ch)
	}
	return &model.ChaptersData{
		Version:  version,
		Chapters: chapters,
	}
}

// vttTimestampPattern はキュータイミング行の先頭タイムスタンプ。
var vttTimestampPattern = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}(?:\.\d{3})?)`)

// ParseVTTChapters はWebVTTテキストをチャプターリストにパースする。
// WEBVTTヘッダと空行を読み飛ばし、"-->" を含む行の先頭タイムスタンプを
// チャプターの開始時刻、その次の空でない行をタイトルとして1件を完成させる。
// 対になっていないキューは黙って破棄する。
func ParseVTTChapters(vttText string) *model.ChaptersData {
	chapters := []model.Chapter{}

	var pendingStart *float64
	for _, line := range strings.Split(vttText, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || line == "WEBVTT" {
			continue
		}

		if strings.Contains(line, "-->") {
			if m := vttTimestampPattern.FindStringSubmatch(line); m != nil {
				start := timeutil.VTTTimestampToSeconds(m[1])
				pendingStart = &start
			} else {
				pendingStart = nil
			}
			continue
		}

		if pendingStart != nil {
			chapters = append(chapters, model.Chapter{
				StartTime: *pendingStart,
				Title:     line,
			})
			pendingStart = nil
		}
	}

	return &model.ChaptersData{
		Version:  "1.0",
		Chapters: chapters,
	}
}

// ParseChapterContent はContent-Typeに基づいてチャプターコンテンツをパースする。
// JSONを宣言していればJSON、text/vttならVTT、不明な場合は
// JSONを先に試してから失敗時にVTTとしてパースする。
func ParseChapterContent(content []byte, contentType string) (*model.ChaptersData, error) {
	ct := strings.ToLower(contentType)

	switch {
	case strings.Contains(ct, "application/json"):
		return ParseJSONChapters(content)
	case strings.Contains(ct, "text/vtt"):
		return ParseVTTChapters(string(content)), nil
	default:
		if data, err := ParseJSONChapters(content); err == nil {
			return data, nil
		}
		return ParseVTTChapters(string(content)), nil
	}
}

// firstNonEmpty は最初の空でない文字列を返す。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
