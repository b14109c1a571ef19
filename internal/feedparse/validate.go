package feedparse

import "github.com/hitoshi/podcheck/internal/model"

// ValidateStructure はフィードの構造要件を検証し、
// 不足しているフィールドを人間が読めるメッセージのリストで返す。
// RSSはchannelのtitle/link/descriptionと1件以上のitemを、
// Atomはid/title/updatedと1件以上のentryを必須とする。
// 検証はエラーを投げず、問題がなければ空リストを返す。
func ValidateStructure(feed *model.Feed) []string {
	errors := []string{}

	if feed == nil {
		return append(errors, "フィードがRSSでもAtomでもありません")
	}

	switch feed.Type {
	case model.FeedTypeRSS:
		ch := feed.RSS.Channel
		if ch.Title == "" {
			errors = append(errors, "RSSチャンネルにtitleがありません")
		}
		if ch.Link == "" {
			errors = append(errors, "RSSチャンネルにlinkがありません")
		}
		if ch.Description == "" {
			errors = append(errors, "RSSチャンネルにdescriptionがありません")
		}
		if len(ch.Items) == 0 {
			errors = append(errors, "RSSチャンネルにitemがありません")
		}

	case model.FeedTypeAtom:
		a := feed.Atom
		if a.ID == "" {
			errors = append(errors, "Atomフィードにidがありません")
		}
		if a.Title == "" {
			errors = append(errors, "Atomフィードにtitleがありません")
		}
		if a.Updated == "" {
			errors = append(errors, "Atomフィードにupdatedがありません")
		}
		if len(a.Entries) == 0 {
			errors = append(errors, "Atomフィードにentryがありません")
		}

	default:
		errors = append(errors, "フィードがRSSでもAtomでもありません")
	}

	return errors
}
