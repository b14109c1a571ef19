// Package handler はHTTP APIのハンドラー群を提供する。
// サービス層の結果をJSONレスポンスへ変換し、APIErrorをステータスコードに対応付ける。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/podcheck/internal/check"
	"github.com/hitoshi/podcheck/internal/middleware"
	"github.com/hitoshi/podcheck/internal/model"
)

// CheckServiceInterface は検査ハンドラーが必要とするサービスインターフェース。
type CheckServiceInterface interface {
	// CheckFeed はフィードURLを検査する。
	CheckFeed(ctx context.Context, feedURL string) (*check.FeedCheckResult, *model.APIError)
	// CheckChapters はチャプターURLを検査する。
	CheckChapters(ctx context.Context, chaptersURL string) (*model.ChaptersData, *model.APIError)
	// CheckValue は受取人パイプラインを実行する。
	CheckValue(ctx context.Context, feedURL, episodeID string) (*check.ValueReport, *model.APIError)
}

// CheckHandler はフィード検査のHTTPハンドラー。
type CheckHandler struct {
	service CheckServiceInterface
	// defaultFeedURL はurlパラメーター省略時に検査するフィード。
	defaultFeedURL string
}

// NewCheckHandler はCheckHandlerを生成する。
func NewCheckHandler(service CheckServiceInterface, defaultFeedURL string) *CheckHandler {
	return &CheckHandler{
		service:        service,
		defaultFeedURL: defaultFeedURL,
	}
}

// statusForAPIError はAPIErrorコードをHTTPステータスコードへ対応付ける。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case "INVALID_URL", "SSRF_BLOCKED":
		return http.StatusBadRequest
	case "EPISODE_NOT_FOUND", "REMOTE_NOT_FOUND":
		return http.StatusNotFound
	case "FETCH_FAILED", "CHAPTERS_FAILED":
		return http.StatusBadGateway
	case "PARSE_FAILED":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON は200 OKのJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// CheckFeed はフィード検査を処理する。
// GET /api/feed?url=
// urlが省略された場合は既定のフィードを検査する。
func (h *CheckHandler) CheckFeed(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("url")
	if feedURL == "" {
		feedURL = h.defaultFeedURL
	}
	if feedURL == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("urlパラメーターが必要です"))
		return
	}

	result, apiErr := h.service.CheckFeed(r.Context(), feedURL)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	writeJSON(w, result)
}

// CheckChapters はチャプター検査を処理する。
// GET /api/chapters?url=
func (h *CheckHandler) CheckChapters(w http.ResponseWriter, r *http.Request) {
	chaptersURL := r.URL.Query().Get("url")
	if chaptersURL == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("urlパラメーターが必要です"))
		return
	}

	data, apiErr := h.service.CheckChapters(r.Context(), chaptersURL)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	writeJSON(w, data)
}

// CheckValue は受取人パイプラインを処理する。
// GET /api/value?feed=<url>&episode=<id>
// episodeはGUIDまたは位置ID（episode-<n>）。省略時は先頭エピソード。
func (h *CheckHandler) CheckValue(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("feed")
	if feedURL == "" {
		feedURL = h.defaultFeedURL
	}
	if feedURL == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("feedパラメーターが必要です"))
		return
	}

	report, apiErr := h.service.CheckValue(r.Context(), feedURL, r.URL.Query().Get("episode"))
	if apiErr != nil {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	writeJSON(w, report)
}
