// Package netlink receives kernel uevents from a NETLINK_KOBJECT_UEVENT socket.
package netlink

import (
	"errors"
	"time"
)

const (
	// カーネルが送信する uevent のマルチキャストグループ
	KERNEL_GROUP          = 1
	DEFAULT_POLL_INTERVAL = 500 * time.Millisecond
	MAX_MESSAGE_SIZE      = 8192
)

var (
	ErrClosed      = errors.New("netlink: socket closed")
	ErrUnsupported = errors.New("netlink: uevent sockets are only supported on linux")
)

// ソケットの設定
type Options struct {
	// SO_RCVBUF のサイズ（0の場合はカーネルの既定値）
	ReceiveBuffer int
	// Receive がコンテキストのキャンセルを確認する間隔
	PollInterval time.Duration
}

func (o Options) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return DEFAULT_POLL_INTERVAL
	}
	return o.PollInterval
}
