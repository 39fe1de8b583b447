// Package main provides localization for the mediactl CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Logging":       "ログ",

		// Root command
		"Control media players over a JSON-lines channel": "JSON Lines チャネル経由でメディアプレーヤーを制御",

		// Global flags
		"Path to a YAML configuration file":    "YAML設定ファイルのパス",
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Serve command
		"Serve one player instance on stdin and stdout":                                                                 "標準入出力で1つのプレーヤーインスタンスを提供",
		"Read commands from stdin and write replies and events to stdout, one JSON object per line. Logs go to stderr.": "標準入力からコマンドを読み、応答とイベントを1行1JSONで標準出力に書き込みます。ログは標準エラー出力に出力されます。",
		"Player instance id": "プレーヤーインスタンスID",
		"Media library directory to report changes for (repeatable)": "変更を通知するメディアライブラリのディレクトリ（複数指定可）",

		// Probe command
		"Print the duration and track catalog of a media file": "メディアファイルの再生時間とトラック一覧を表示",

		// Capture command
		"Save the frame at a position as an image":           "指定位置のフレームを画像として保存",
		"Output image path (.png or .jpg)":                   "出力画像のパス（.png または .jpg）",
		"Position in milliseconds":                           "位置（ミリ秒）",
		"Frame width (default: surface width from config)":   "フレームの幅（デフォルト: 設定のサーフェス幅）",
		"Frame height (default: surface height from config)": "フレームの高さ（デフォルト: 設定のサーフェス高さ）",
		"JPEG quality (1-100)":                               "JPEG品質（1-100）",

		// Watch command
		"Print media library changes": "メディアライブラリの変更を表示",

		// Version command
		"Show version information": "バージョン情報を表示",
		"mediactl version %s":      "mediactl バージョン %s",

		// Error messages
		"URI argument is required":           "URI引数が必要です",
		"At least one directory is required": "少なくとも1つのディレクトリが必要です",
	})
}
