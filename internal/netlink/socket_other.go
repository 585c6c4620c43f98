//go:build !linux

package netlink

import "context"

// uevent 受信用のnetlinkソケット（Linux以外では利用不可）
type Socket struct{}

func Open(opts Options) (*Socket, error) {
	return nil, ErrUnsupported
}

func (s *Socket) Receive(ctx context.Context) ([]byte, error) {
	return nil, ErrUnsupported
}

func (s *Socket) Close() error {
	return nil
}
