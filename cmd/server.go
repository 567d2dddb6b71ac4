// Package main はyobroサーバーコマンドの実装です
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"yobro/internal/config"
	"yobro/internal/server"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configFile string
		host       string
		port       int
		name       string
		noAdopt    bool
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "yobro HTTPサーバー",
		Long: `yobro HTTPサーバーを起動します。

監視プロセスからLISTEN_FDSでソケットが渡されていればそれを引き継ぎ、
無ければ設定されたアドレスにbindします。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 設定を読み込む
			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
			}

			// コマンドラインオプションで設定を上書き
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("name") {
				cfg.App.Name = name
			}
			if noAdopt {
				cfg.Server.AdoptListener = false
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("設定が不正です: %w", err)
			}

			logger := cfg.NewLogger(os.Stderr)
			slog.SetDefault(logger)

			srv, err := server.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("サーバーの作成に失敗しました: %w", err)
			}

			logger.Info("yobro サーバーを起動します", "addr", cfg.ServerAddress())
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "設定ファイル (YAML)")
	cmd.Flags().StringVar(&host, "host", "", "サーバーのホスト (デフォルト: 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "サーバーのポート (デフォルト: 8088)")
	cmd.Flags().StringVar(&name, "name", "", "アプリケーション名 (デフォルト: Actix-web)")
	cmd.Flags().BoolVar(&noAdopt, "no-adopt", false, "渡されたソケットを引き継がない")

	return cmd
}
