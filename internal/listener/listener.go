// Package listener は、サーバーが使うリッスンソケットを用意します。
//
// 監視プロセス（systemfd や systemd のソケットアクティベーション）から
// LISTEN_FDS で受け取ったソケットがあればそれを引き継ぎ、bind/listen を行いません。
// 無ければ設定されたアドレスに新しくbindします。
//
// 引き継ぎのプロトコル:
//   - LISTEN_FDS: 渡されたファイルディスクリプタの数（先頭は3番）
//   - LISTEN_PID: 設定されている場合、自プロセスのPIDと一致する必要がある
//
// 引き継ぎ後は子プロセスへ伝播しないよう環境変数を削除します。
// listen 状態のTCPソケットでないfdは引き継がず、そのまま残します。
package listener

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	envListenFDs = "LISTEN_FDS"
	envListenPID = "LISTEN_PID"

	// listenFDsStart は最初に渡されるファイルディスクリプタの番号
	listenFDsStart = 3
)

// ErrNoListener は引き継げるソケットが無いことを表す
var ErrNoListener = errors.New("listener: no socket handed off")

// Adapter は引き継ぎ用の環境を抽象化する
type Adapter struct {
	Getenv   func(string) string
	Unsetenv func(string) error
	Getpid   func() int
	// FirstFD は最初のファイルディスクリプタ番号（通常は3）
	FirstFD int

	Logger *slog.Logger
}

// NewAdapter はプロセスの環境を使うAdapterを作成する
func NewAdapter(logger *slog.Logger) *Adapter {
	return &Adapter{
		Getenv:   os.Getenv,
		Unsetenv: os.Unsetenv,
		Getpid:   os.Getpid,
		FirstFD:  listenFDsStart,
		Logger:   logger,
	}
}

// Listen は引き継いだソケットがあればそれを返し、無ければ addr にbindする
// adopted は引き継いだソケットかどうかを示す
func (a *Adapter) Listen(addr string, adopt bool) (l net.Listener, adopted bool, err error) {
	if adopt {
		l, err := a.Adopt()
		switch {
		case err == nil:
			a.logger().Info("引き継いだソケットを使用します", "addr", l.Addr().String())
			return l, true, nil
		case errors.Is(err, ErrNoListener):
			// 通常の起動
		default:
			a.logger().Warn("ソケットの引き継ぎに失敗したため新しくbindします", "error", err)
		}
	}

	l, err = net.Listen("tcp", addr)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create listener on %q: %w", addr, err)
	}
	return l, false, nil
}

// Adopt は LISTEN_FDS で渡された最初のソケットを net.Listener として返す
func (a *Adapter) Adopt() (net.Listener, error) {
	raw := a.Getenv(envListenFDs)
	if raw == "" {
		return nil, ErrNoListener
	}

	if pid := a.Getenv(envListenPID); pid != "" {
		n, err := strconv.Atoi(pid)
		if err != nil {
			return nil, fmt.Errorf("listener: invalid %s %q: %w", envListenPID, pid, err)
		}
		if n != a.Getpid() {
			// 別プロセス宛て
			return nil, ErrNoListener
		}
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 {
		return nil, fmt.Errorf("listener: invalid %s %q", envListenFDs, raw)
	}

	defer a.clearEnv()

	fd := a.FirstFD
	if err := checkListening(fd); err != nil {
		return nil, fmt.Errorf("listener: fd %d: %w", fd, err)
	}

	f := os.NewFile(uintptr(fd), "listenfd")
	defer f.Close()

	// FileListener は fd を複製するため、元の f は閉じてよい
	l, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("listener: fd %d: %w", fd, err)
	}
	if _, ok := l.(*net.TCPListener); !ok {
		network := l.Addr().Network()
		l.Close()
		return nil, fmt.Errorf("listener: fd %d is %s, not tcp", fd, network)
	}
	return l, nil
}

// checkListening は fd が listen 状態のTCPソケットか確認する
// 確認はgetsockoptのみで行い、条件を満たさないfdには触れない
func checkListening(fd int) error {
	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return fmt.Errorf("not a socket: %w", err)
	}
	domain, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_DOMAIN)
	if err != nil {
		return fmt.Errorf("query SO_DOMAIN: %w", err)
	}
	if domain != unix.AF_INET && domain != unix.AF_INET6 {
		return fmt.Errorf("socket family %d is not inet", domain)
	}
	if typ != unix.SOCK_STREAM {
		return fmt.Errorf("socket type %d is not a stream socket", typ)
	}
	accepting, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ACCEPTCONN)
	if err != nil {
		return fmt.Errorf("query SO_ACCEPTCONN: %w", err)
	}
	if accepting == 0 {
		return errors.New("socket is not listening")
	}
	return nil
}

func (a *Adapter) clearEnv() {
	if a.Unsetenv == nil {
		return
	}
	_ = a.Unsetenv(envListenFDs)
	_ = a.Unsetenv(envListenPID)
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
