package app

// Command はkiwiバイナリのサブコマンドを表す。
type Command string

const (
	// CommandServe は掲示板APIを起動する。SIGINT/SIGTERMで停止するまで動作する。
	CommandServe Command = "serve"
	// CommandMigrate はusers, messages, likesのマイグレーションを適用して終了する。
	// DATABASE_URLのスキームでPostgreSQLとSQLiteを切り替える。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はローカルの/healthを叩き、結果を終了コードで返す。
	// シェルのないdistrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数からサブコマンドを決める。
// 引数なし、または未知の名前はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
