// Package spool delivers raw uevent dumps dropped into a directory.
//
// Producers (for example a udev rule running `env > $dir/$SEQNUM.tmp && mv ...`)
// write each event to a temporary file and rename it into place. Files ending
// in ".tmp" and dotfiles are ignored until they are renamed.
package spool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

const (
	TEMP_SUFFIX  = ".tmp"
	QUEUE_LENGTH = 64
)

var ErrClosed = errors.New("spool: watcher closed")

// スプールディレクトリの監視のための構造体
type Watcher struct {
	dir             string
	removeProcessed bool
	log             logr.Logger
	watcher         *fsnotify.Watcher
	messages        chan []byte
	done            chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

// 新しいWatcherを作成して監視を開始
func Open(dir string, removeProcessed bool, log logr.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("spool directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spool directory %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		dir:             dir,
		removeProcessed: removeProcessed,
		log:             log.WithValues("dir", dir),
		watcher:         fw,
		messages:        make(chan []byte, QUEUE_LENGTH),
		done:            make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// 次のファイルの内容を受信
func (w *Watcher) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-w.messages:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	}
}

// 監視を停止
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

// ファイルシステムイベントを処理するループを実行
func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.messages)

	// 起動前に置かれていたファイルを先に処理
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Error(err, "Failed reading spool directory")
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if !w.deliver(filepath.Join(w.dir, name)) {
			return
		}
	}

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// 作成とリネームによる配置のみを処理
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.deliver(event.Name) {
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error(err, "Failed watcher")
		}
	}
}

// ファイルを読み込んでキューに追加（停止された場合はfalse）
func (w *Watcher) deliver(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, TEMP_SUFFIX) {
		return true
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Error(err, "Failed reading spool file", "file", name)
		return true
	}

	if w.removeProcessed {
		if err := os.Remove(path); err != nil {
			w.log.Error(err, "Failed removing spool file", "file", name)
		}
	}

	w.log.V(1).Info("Read spool file", "file", name, "size", len(data))

	select {
	case w.messages <- data:
		return true
	case <-w.done:
		return false
	}
}
