package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/podcheck/internal/middleware"
	"github.com/hitoshi/podcheck/internal/model"
	"github.com/hitoshi/podcheck/internal/remote"
)

// RemoteResolverInterface はリモートフィードハンドラーが必要とするインターフェース。
type RemoteResolverInterface interface {
	// ResolveValueBlock はフィードGUIDから受取人ブロックを解決する。
	ResolveValueBlock(ctx context.Context, feedGUID string) *model.ValueBlock
	// ResolvePodcastInfo はフィードGUIDから表示情報を解決する。
	ResolvePodcastInfo(ctx context.Context, feedGUID string, hint *remote.RSSHint) *model.PodcastInfo
	// CacheInfo はキャッシュのデバッグスナップショットを返す。
	CacheInfo() remote.CacheSnapshot
}

// RemoteHandler はリモートフィード解決のHTTPハンドラー。
type RemoteHandler struct {
	resolver RemoteResolverInterface
}

// NewRemoteHandler はRemoteHandlerを生成する。
func NewRemoteHandler(resolver RemoteResolverInterface) *RemoteHandler {
	return &RemoteHandler{
		resolver: resolver,
	}
}

// remoteResponse はリモートフィード解決のAPIレスポンス。
type remoteResponse struct {
	Podcast *model.PodcastInfo `json:"podcast"`
	Value   *model.ValueBlock  `json:"value,omitempty"`
}

// ResolveRemote はリモートフィード解決を処理する。
// GET /api/remote/{guid}
// 表示情報は常に返る（フォールバック含む）。受取人ブロックは解決できた場合のみ。
func (h *RemoteHandler) ResolveRemote(w http.ResponseWriter, r *http.Request) {
	feedGUID := chi.URLParam(r, "guid")
	if feedGUID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewRemoteNotFoundError(feedGUID))
		return
	}

	writeJSON(w, remoteResponse{
		Podcast: h.resolver.ResolvePodcastInfo(r.Context(), feedGUID, nil),
		Value:   h.resolver.ResolveValueBlock(r.Context(), feedGUID),
	})
}

// CacheInfo はキャッシュのデバッグ情報を処理する。
// GET /api/remote/cache
func (h *RemoteHandler) CacheInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.resolver.CacheInfo())
}
