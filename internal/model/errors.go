package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, feed, remote, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidURL      = "INVALID_URL"
	ErrCodeSSRFBlocked     = "SSRF_BLOCKED"
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeParseFailed     = "PARSE_FAILED"
	ErrCodeChaptersFailed  = "CHAPTERS_FAILED"
	ErrCodeEpisodeNotFound = "EPISODE_NOT_FOUND"
	ErrCodeRemoteNotFound  = "REMOTE_NOT_FOUND"
)

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", url),
		Category: "validation",
		Action:   "http(s)スキームの完全なURLを指定してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  fmt.Sprintf("指定されたURLへのアクセスは許可されていません: %s", url),
		Category: "validation",
		Action:   "公開されているフィードのURLを指定してください。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("フィードの取得に失敗しました: %s", url),
		Category: "feed",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewParseFailedError はパース失敗エラーを生成する。
func NewParseFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  fmt.Sprintf("フィードのパースに失敗しました: %s", reason),
		Category: "feed",
		Action:   "フィードが有効なRSSまたはAtom形式か確認してください。",
	}
}

// NewChaptersFailedError はチャプター取得失敗エラーを生成する。
func NewChaptersFailedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeChaptersFailed,
		Message:  fmt.Sprintf("チャプターファイルの取得に失敗しました: %s", url),
		Category: "feed",
		Action:   "チャプターファイルのURLが有効か確認してください。",
	}
}

// NewEpisodeNotFoundError はエピソード未検出エラーを生成する。
func NewEpisodeNotFoundError(episodeID string) *APIError {
	return &APIError{
		Code:     ErrCodeEpisodeNotFound,
		Message:  fmt.Sprintf("指定されたエピソードが見つかりません: %s", episodeID),
		Category: "feed",
		Action:   "エピソードIDを確認してください。",
	}
}

// NewRemoteNotFoundError はリモートフィード解決失敗エラーを生成する。
func NewRemoteNotFoundError(feedGUID string) *APIError {
	return &APIError{
		Code:     ErrCodeRemoteNotFound,
		Message:  fmt.Sprintf("リモートフィードを解決できませんでした: %s", feedGUID),
		Category: "remote",
		Action:   "フィードGUIDを確認してください。",
	}
}
