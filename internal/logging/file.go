package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileWriter returns a size-rotated log file writer. maxSizeMB and
// maxBackups fall back to 10 MB and 3 files when zero.
func NewFileWriter(path string, maxSizeMB, maxBackups int) io.WriteCloser {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   false,
	}
}
