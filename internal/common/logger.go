package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

// InitLogger initializes the arbor logger with configuration.
// name is used for the log file (logs/<name>.log next to the executable).
func InitLogger(config *Config, name string) arbor.ILogger {
	logger := arbor.NewLogger()
	format := outputFormat(config.Logging.Format)

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		if output == "file" {
			hasFileOutput = true
		}
		if output == "stdout" || output == "console" {
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		logger = withFileWriter(logger, name, format)
	}

	if hasStdoutOutput {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			OutputType:       format,
			DisableTimestamp: false,
		})
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

// InitStdioLogger initializes a logger for front-ends that own stdout
// (console loop, MCP stdio). Console output is limited to warnings;
// when file output is configured everything at the configured level goes
// to the file instead.
func InitStdioLogger(config *Config, name string, useConsole bool) arbor.ILogger {
	for _, output := range config.Logging.Output {
		if output == "file" {
			return withFileWriter(arbor.NewLogger(), name, outputFormat(config.Logging.Format)).
				WithLevelFromString(config.Logging.Level)
		}
	}

	if !useConsole {
		return NewSilentLogger()
	}

	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		OutputType:       models.OutputFormatLogfmt,
		DisableTimestamp: false,
	}).WithLevelFromString("warn")
}

func withFileWriter(logger arbor.ILogger, name string, format models.OutputFormat) arbor.ILogger {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Printf("Warning: Failed to get executable path: %v\n", err)
		return logger
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Printf("Warning: Failed to create logs directory: %v\n", err)
		return logger
	}

	return logger.WithFileWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeFile,
		FileName:         filepath.Join(logsDir, name+".log"),
		TimeFormat:       "15:04:05",
		MaxSize:          100 * 1024 * 1024, // 100 MB
		MaxBackups:       3,
		OutputType:       format,
		DisableTimestamp: false,
	})
}

// NewSilentLogger returns a logger with a private writer that drops every
// entry. It never touches the global writer registry.
func NewSilentLogger() arbor.ILogger {
	return arbor.NewLogger().WithWriters([]writers.IWriter{discardWriter{}})
}

func outputFormat(format string) models.OutputFormat {
	if format == "json" {
		return models.OutputFormatJSON
	}
	return models.OutputFormatLogfmt
}

type discardWriter struct{}

func (w discardWriter) WithLevel(level log.Level) writers.IWriter { return w }
func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (discardWriter) GetFilePath() string { return "" }
func (discardWriter) Close() error { return nil }
