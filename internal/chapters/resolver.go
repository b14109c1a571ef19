package chapters

import (
	"context"
	"log/slog"

	"github.com/hitoshi/podcheck/internal/fetch"
	"github.com/hitoshi/podcheck/internal/model"
)

// ContentFetcher はチャプターファイル取得のインターフェース。
// fetch.Fetcherを抽象化してテスタビリティを向上させる。
type ContentFetcher interface {
	Fetch(ctx context.Context, targetURL string, accept string) (*fetch.Result, error)
}

// Resolver はチャプターファイルURLからチャプターリストを解決する。
// 取得はトランスポートのフォールバックチェーンに委譲する。
type Resolver struct {
	fetcher ContentFetcher
	logger  *slog.Logger
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(fetcher ContentFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
	}
}

// FetchChapters はチャプターファイルを取得してパースする。
// すべてのトランスポートが失敗した場合、またはパースに失敗した場合は
// nilを返す（呼び出し元にエラーは伝播させず、理由をログに残す）。
// nilは完全な失敗を、リスト（空の場合もある）は成功を意味する。
func (r *Resolver) FetchChapters(ctx context.Context, chaptersURL string) *model.ChaptersData {
	result, err := r.fetcher.Fetch(ctx, chaptersURL, "")
	if err != nil {
		r.logger.Warn("チャプターファイルの取得に失敗しました",
			slog.String("url", chaptersURL),
			slog.String("error", err.Error()),
		)
		return nil
	}

	data, err := ParseChapterContent(result.Body, result.ContentType)
	if err != nil {
		r.logger.Warn("チャプターコンテンツのパースに失敗しました",
			slog.String("url", chaptersURL),
			slog.String("via", result.Via),
			slog.String("error", err.Error()),
		)
		return nil
	}

	r.logger.Info("チャプターを取得しました",
		slog.String("url", chaptersURL),
		slog.String("via", result.Via),
		slog.Int("chapter_count", len(data.Chapters)),
	)
	return data
}
