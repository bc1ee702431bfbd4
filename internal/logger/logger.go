package logger

import "go.uber.org/zap"

// New は GO_ENV に合わせたロガーを返す。prod はJSON、それ以外は開発用の見やすい出力。
func New(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
