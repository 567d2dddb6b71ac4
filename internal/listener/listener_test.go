package listener

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeEnv はテスト用の環境変数
type fakeEnv map[string]string

func (e fakeEnv) adapter(fd int) *Adapter {
	return &Adapter{
		Getenv: func(k string) string { return e[k] },
		Unsetenv: func(k string) error {
			delete(e, k)
			return nil
		},
		Getpid:  func() int { return 4242 },
		FirstFD: fd,
	}
}

// handOff は監視プロセスから渡されたのと同じ状態の、listen 済みソケットのfdを作る
func handOff(t *testing.T) (fd int, addr string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	f, err := ln.(*net.TCPListener).File()
	require.NoError(t, err)
	defer f.Close()

	// 所有権をAdoptに渡すため複製する
	fd, err = unix.Dup(int(f.Fd()))
	require.NoError(t, err)
	return fd, ln.Addr().String()
}

func TestListenBindsWithoutHandOff(t *testing.T) {
	a := fakeEnv{}.adapter(listenFDsStart)

	l, adopted, err := a.Listen("127.0.0.1:0", true)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, adopted)
	assert.Equal(t, "tcp", l.Addr().Network())
}

func TestListenAdoptsHandedOffSocket(t *testing.T) {
	fd, addr := handOff(t)
	env := fakeEnv{envListenFDs: "1", envListenPID: "4242"}

	// addr は使用中なので、bindを試みれば失敗する
	l, adopted, err := env.adapter(fd).Listen(addr, true)
	require.NoError(t, err)
	defer l.Close()

	assert.True(t, adopted)
	assert.Equal(t, addr, l.Addr().String())
	assert.Empty(t, env[envListenFDs], "LISTEN_FDS が削除されていません")
	assert.Empty(t, env[envListenPID], "LISTEN_PID が削除されていません")

	// 引き継いだソケットで接続を受け付けられる
	accepted := make(chan error, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			c.Close()
		}
		accepted <- err
	}()

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	c.Close()
	assert.NoError(t, <-accepted)
}

func TestAdoptWithoutPID(t *testing.T) {
	fd, addr := handOff(t)
	env := fakeEnv{envListenFDs: "1"}

	l, err := env.adapter(fd).Adopt()
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, addr, l.Addr().String())
}

func TestAdoptIgnoresOtherProcess(t *testing.T) {
	env := fakeEnv{envListenFDs: "1", envListenPID: "1"}

	_, err := env.adapter(listenFDsStart).Adopt()
	assert.ErrorIs(t, err, ErrNoListener)
	assert.Equal(t, "1", env[envListenFDs], "他プロセス宛ての環境変数は残す")
}

func TestAdoptInvalidEnv(t *testing.T) {
	testCases := []struct {
		name string
		env  fakeEnv
	}{
		{"数値でないLISTEN_FDS", fakeEnv{envListenFDs: "abc"}},
		{"0個のLISTEN_FDS", fakeEnv{envListenFDs: "0"}},
		{"数値でないLISTEN_PID", fakeEnv{envListenFDs: "1", envListenPID: "me"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.env.adapter(listenFDsStart).Adopt()
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNoListener))
		})
	}
}

func TestListenFallsBackWhenFDIsNotASocket(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-socket"))
	require.NoError(t, err)
	defer f.Close()

	env := fakeEnv{envListenFDs: "1"}
	l, adopted, err := env.adapter(int(f.Fd())).Listen("127.0.0.1:0", true)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, adopted)
}

func TestListenLeavesUnixSocketUntouched(t *testing.T) {
	ul, err := net.Listen("unix", filepath.Join(t.TempDir(), "yobro.sock"))
	require.NoError(t, err)
	defer ul.Close()

	f, err := ul.(*net.UnixListener).File()
	require.NoError(t, err)
	fd, err := unix.Dup(int(f.Fd()))
	f.Close()
	require.NoError(t, err)
	defer unix.Close(fd)

	env := fakeEnv{envListenFDs: "1"}
	l, adopted, err := env.adapter(fd).Listen("127.0.0.1:0", true)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, adopted)
	assert.Equal(t, "tcp", l.Addr().Network())

	// fdは閉じられずに残っている
	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	require.NoError(t, err)
	assert.Equal(t, unix.SOCK_STREAM, typ)
}

func TestListenDoesNotAdoptWhenDisabled(t *testing.T) {
	env := fakeEnv{envListenFDs: "1"}

	l, adopted, err := env.adapter(listenFDsStart).Listen("127.0.0.1:0", false)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, adopted)
	assert.Equal(t, "1", env[envListenFDs])
}

func TestListenBindFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	_, _, err = fakeEnv{}.adapter(listenFDsStart).Listen(busy.Addr().String(), true)
	assert.Error(t, err)
}
