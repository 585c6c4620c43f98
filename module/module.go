// Package module defines the monitoring modules run by the manager and the
// events they report.
package module

// 監視モジュールが実装すべきメソッドを定義
type Module interface {
	Initialize() error  // イベントソースの準備
	Start() error       // 受信ループの開始
	Stop() error        // 受信ループの停止とソースの解放
	GetEvents() []Event // 検出したデバイスイベントを取得
}
