package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logConfig struct {
	Level  string
	Format string
	File   string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func setupLoggingFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("log-file", "", "also log to this file, rotating it as it grows")
	flags.Int("log-max-size", 10, "size in MB at which the log file is rotated")
	flags.Int("log-max-backups", 3, "number of rotated log files to keep")
	flags.Int("log-max-age", 7, "days to keep rotated log files")
}

func getLogConfig() logConfig {
	return logConfig{
		Level:      viper.GetString("log-level"),
		Format:     viper.GetString("log-format"),
		File:       viper.GetString("log-file"),
		MaxSizeMB:  viper.GetInt("log-max-size"),
		MaxBackups: viper.GetInt("log-max-backups"),
		MaxAgeDays: viper.GetInt("log-max-age"),
	}
}

// newLogger logs to stderr, and additionally to a rotated file if one is
// configured.
func newLogger(c logConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level),
	}
	if c.File != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    max(c.MaxSizeMB, 1),
			MaxBackups: max(c.MaxBackups, 0),
			MaxAge:     max(c.MaxAgeDays, 0),
		}), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
