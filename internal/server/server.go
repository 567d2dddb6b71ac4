package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"yobro/internal/config"
	"yobro/internal/listener"
	"yobro/internal/middleware"
	"yobro/internal/router"
	"yobro/internal/state"
)

// apiVersion は /openapi.json に載せるバージョン
const apiVersion = "1.0.0"

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	state   *state.Store
	adapter *listener.Adapter

	registry *prometheus.Registry
	metrics  *middleware.Metrics

	table      *router.Table
	httpServer *http.Server
}

// Option はServerの生成時設定
type Option func(*Server)

// WithListenerAdapter はソケットの引き継ぎに使うAdapterを差し替える
func WithListenerAdapter(a *listener.Adapter) Option {
	return func(s *Server) {
		s.adapter = a
	}
}

// WithState は共有状態を差し替える
func WithState(st *state.Store) Option {
	return func(s *Server) {
		s.state = st
	}
}

// New は新しいServerインスタンスを作成する
// ルーティングテーブルの構築に失敗した場合はエラーを返す
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state == nil {
		s.state = state.New(cfg.App.Name)
	}
	if s.adapter == nil {
		s.adapter = listener.NewAdapter(logger)
	}

	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.metrics = middleware.NewMetrics(middleware.WithRegistry(s.registry))
		s.metrics.CounterGauge(s.state.Load)
	}

	table, err := s.buildRoutes(NewHandlers(s.state, logger))
	if err != nil {
		return nil, fmt.Errorf("ルーティングテーブルの構築に失敗: %w", err)
	}
	s.table = table

	s.httpServer = &http.Server{
		Handler:      table,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return s, nil
}

// Handler はルーティングテーブルを返す
func (s *Server) Handler() http.Handler {
	return s.table
}

// Start はリッスンソケットを用意してサーバーを起動する
// 引き継いだソケットがあればbindせずにそれを使う
func (s *Server) Start(ctx context.Context) error {
	l, adopted, err := s.adapter.Listen(s.config.ServerAddress(), s.config.Server.AdoptListener)
	if err != nil {
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	}
	if !adopted {
		s.logger.Info("アドレスにbindしました", "addr", l.Addr().String())
	}
	return s.Serve(ctx, l)
}

// Serve は l で接続を受け付け、コンテキストのキャンセルかシグナルで停止する
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	serveDone := make(chan struct{})

	g.Go(func() error {
		defer close(serveDone)
		s.logger.Info("HTTPサーバーを起動しています", "addr", l.Addr().String())
		if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーの実行に失敗: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-serveDone:
			return nil
		case <-gctx.Done():
			s.logger.Info("コンテキストがキャンセルされました")
		case sig := <-sigCh:
			s.logger.Info("シグナルを受信しました", "signal", sig.String())
		}
		return s.Shutdown()
	})

	return g.Wait()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// ShutdownTimeout が0なら処理中の接続を待たずに閉じる
func (s *Server) Shutdown() error {
	s.logger.Info("サーバーをシャットダウンしています...")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		return s.httpServer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	s.logger.Info("サーバーが正常にシャットダウンされました")
	return nil
}
