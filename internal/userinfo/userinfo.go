package userinfo

import (
	"os"
	"os/user"
)

const UNKNOWN = "unknown"

// ユーザー情報の構造体
type UserInfo struct {
	UserName string
	HostName string
}

// 新しいUserInfoを作成
func NewUserInfo() *UserInfo {
	return &UserInfo{
		UserName: lookupUserName(),
		HostName: lookupHostName(),
	}
}

// ユーザー名を取得（USER、LOGNAME、プロセスの実行ユーザーの順）
func lookupUserName() string {
	for _, key := range []string{"USER", "LOGNAME"} {
		if name := os.Getenv(key); name != "" {
			return name
		}
	}

	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}

	return UNKNOWN
}

// ホスト名を取得
func lookupHostName() string {
	hostName, err := os.Hostname()
	if err != nil || hostName == "" {
		return UNKNOWN
	}

	return hostName
}
