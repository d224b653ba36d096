package app

import "fmt"

// Command はアプリケーションの起動モード。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行して終了する。
	// コンテナのHEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数から起動モードを決定する。
// 引数なしの場合はserveとして扱う。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	switch Command(args[0]) {
	case CommandServe:
		return CommandServe, nil
	case CommandMigrate:
		return CommandMigrate, nil
	case CommandHealthcheck:
		return CommandHealthcheck, nil
	default:
		return "", fmt.Errorf("unknown command: %s (expected serve, migrate or healthcheck)", args[0])
	}
}
