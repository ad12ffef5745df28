// Package cleanup は放置カート行の自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超えて更新されていないカート行を
// 日次バッチで削除する。数量0の行は存在しない前提なので対象は放置行のみ。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanedRecorder は削除件数をメトリクスに記録するインターフェース。
type CleanedRecorder interface {
	RecordCartLinesCleaned(count int)
}

// CleanupJob は保持期間を超過した放置カート行の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	recorder      CleanedRecorder
	RetentionDays int // カート行の保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 90,
	}
}

// WithRecorder は削除件数のメトリクス記録先を設定する。
func (j *CleanupJob) WithRecorder(recorder CleanedRecorder) *CleanupJob {
	j.recorder = recorder
	return j
}

// Run は保持期間を超過したカート行を削除する。
// updated_atがRetentionDays日前より古い行をDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM cart_items WHERE updated_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("カートクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("カートクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordCartLinesCleaned(int(deletedCount))
	}

	duration := time.Since(start)
	j.logger.Info("カートクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
