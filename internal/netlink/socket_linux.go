//go:build linux

package netlink

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// uevent 受信用のnetlinkソケット
type Socket struct {
	fd     int
	buf    []byte
	mu     sync.Mutex
	closed bool
}

// カーネルの uevent グループに接続したソケットを作成
func Open(opts Options) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("creating netlink socket: %w", err)
	}

	if opts.ReceiveBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, opts.ReceiveBuffer); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("setting receive buffer: %w", err)
		}
	}

	// 受信タイムアウトを設定してコンテキストを定期的に確認できるようにする
	tv := unix.NsecToTimeval(opts.pollInterval().Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setting receive timeout: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: KERNEL_GROUP,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding netlink socket: %w", err)
	}

	return &Socket{
		fd:  fd,
		buf: make([]byte, MAX_MESSAGE_SIZE),
	}, nil
}

// 次の uevent メッセージを受信
// カーネル以外（pid != 0）から送信されたメッセージは破棄する
func (s *Socket) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		n, from, err := unix.Recvfrom(s.fd, s.buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EBADF) {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("receiving uevent: %w", err)
		}

		if sa, ok := from.(*unix.SockaddrNetlink); !ok || sa.Pid != 0 {
			continue
		}

		msg := make([]byte, n)
		copy(msg, s.buf[:n])

		return msg, nil
	}
}

// ソケットを閉じる
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return unix.Close(s.fd)
}
