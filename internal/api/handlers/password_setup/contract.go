package password_setup

import "context"

type AccountsService interface {
	CompletePasswordSetup(ctx context.Context, email, token, password string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
