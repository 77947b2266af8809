package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultTimeFormat = "15:04:05"
	logFileName       = "marketmood.log"
	logFileMaxSize    = 50 * 1024 * 1024
	logFileBackups    = 3
)

// InitLogger builds the arbor logger described by config.Logging.
// Console output is kept whenever file output is absent or cannot be opened.
func InitLogger(config *Config) arbor.ILogger {
	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	wantFile, wantConsole := false, false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			wantFile = true
		case "stdout", "console":
			wantConsole = true
		}
	}

	logger := arbor.NewLogger()

	fileOpened := false
	if wantFile {
		dir := LogDir(config)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create log directory %s: %v\n", dir, err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   filepath.Join(dir, logFileName),
				TimeFormat: timeFormat,
				MaxSize:    logFileMaxSize,
				MaxBackups: logFileBackups,
				OutputType: models.OutputFormatLogfmt,
			})
			fileOpened = true
		}
	}

	if wantConsole || !fileOpened {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: timeFormat,
			OutputType: models.OutputFormatLogfmt,
		})
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

// LogDir is logging.dir when set, otherwise a logs directory beside the output directory.
// Crash reports go here too.
func LogDir(config *Config) string {
	if config.Logging.Dir != "" {
		return config.Logging.Dir
	}
	return filepath.Join(filepath.Dir(filepath.Clean(config.Output.Dir)), "logs")
}

// GetLogFilePath returns the file the logger writes to, or "" for console only
func GetLogFilePath(logger arbor.ILogger) string {
	if logger != nil {
		return logger.GetLogFilePath()
	}
	return ""
}
