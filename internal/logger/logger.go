package logger

import (
	"os"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const production = "production"

// New builds the process logger for env. Production writes JSON, anything
// else writes colored console lines; both go to stdout.
func New(env string) (*zap.Logger, error) {
	return configFor(env).Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewWithRollbar is New plus a hook forwarding error entries to Rollbar.
// An empty token yields the plain logger.
func NewWithRollbar(env, token string) (*zap.Logger, error) {
	log, err := New(env)
	if err != nil || token == "" {
		return log, err
	}

	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(os.Getenv("BUILD_VERSION"))
	return log.WithOptions(zap.Hooks(RollbarHook(rollbar.Error))), nil
}

func configFor(env string) zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == production {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg
}

// RollbarHook reports entries at error level or above through report
func RollbarHook(report func(interfaces ...interface{})) func(zapcore.Entry) error {
	return func(entry zapcore.Entry) error {
		if entry.Level < zapcore.ErrorLevel {
			return nil
		}
		report(entry.Message, map[string]interface{}{
			"level":  entry.Level.String(),
			"logger": entry.LoggerName,
			"caller": entry.Caller.TrimmedPath(),
		})
		return nil
	}
}
