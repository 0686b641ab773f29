package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rollbarerrs "github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// RollbarLogger mirrors everything to stdout and, when enabled, to Rollbar.
// A user.User argument is never forwarded as payload; it only identifies the
// person on the Rollbar item.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrs.StackTracer)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected args: error | map[string]interface{} | user.User
func (l *RollbarLogger) log(send func(...interface{}), msg string, args []interface{}) {
	l.std.Println(msg)

	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)

	var personSet bool
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !personSet { // only one person per item
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				personSet = true
			}
			continue
		}
		l.std.Printf("%+v\n", arg)
		payload = append(payload, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	send(payload...)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}
