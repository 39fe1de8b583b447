package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Process level messages (info)
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
		"Frame at %s saved to %s":       "%s のフレームを %s に保存しました",
		"Watching %s (Ctrl+C to stop)":  "%s を監視中 (Ctrl+C で終了)",

		// Registry and player
		"Created player %d":                            "プレーヤー %d を作成しました",
		"Released player %d":                           "プレーヤー %d を解放しました",
		"Release of player %d ignored: not registered": "プレーヤー %d は登録されていないため解放をスキップしました",
		"Attached view to player %d":                   "プレーヤー %d にビューを接続しました",
		"Detached view from player %d":                 "プレーヤー %d からビューを切断しました",
		"Failed to prepare %s: %s":                     "%s の準備に失敗しました: %s",
		"Player %d error: %s":                          "プレーヤー %d でエラー: %s",
		"Dropped event %s: no consumer attached":       "イベント %s を破棄しました: 受信者がいません",

		// Event delivery
		"Dropped event %s: consumer queue full": "イベント %s を破棄しました: 受信キューが満杯です",
		"Failed to deliver event %s: %s":        "イベント %s の配信に失敗しました: %s",

		// MP4 engine
		"Opening %s":                          "%s を開いています",
		"Prepared %s: %d ms, %d track groups": "%s の準備完了: %d ms, トラックグループ %d 個",
		"Playback error: %s":                  "再生エラー: %s",

		// Library watcher
		"Watching library %s":                      "ライブラリ %s を監視しています",
		"Failed to watch %s: %s":                   "%s の監視に失敗しました: %s",
		"Library change %s: %s":                    "ライブラリの変更 %s: %s",
		"Library watcher error: %s":                "ライブラリ監視エラー: %s",
		"Library subscriber attached":              "ライブラリの購読者を登録しました",
		"Library subscriber detached":              "ライブラリの購読者を解除しました",
		"Dropped library change %s: no subscriber": "ライブラリの変更 %s を破棄しました: 購読者がいません",
		"Failed to deliver library change %s: %s":  "ライブラリの変更 %s の配信に失敗しました: %s",

		// Channel
		"Command %s (%d)":       "コマンド %s (%d)",
		"Command %s failed: %s": "コマンド %s が失敗しました: %s",
	})
}
