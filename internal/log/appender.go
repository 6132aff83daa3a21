package log

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MultiWriter fans a log line out to every configured appender. A failed
// appender never blocks the others.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		_, e := w.Write(p)
		if e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

func (m *MultiWriter) AddFileAppender(opt FileAppenderOpt) *MultiWriter {
	return m.Add(&lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSize,    // megabytes
		MaxBackups: opt.MaxBackups, // number of backups
		MaxAge:     opt.MaxAge,     // days
		Compress:   opt.Compress,
	})
}

func buildWriter(appenders []AppenderConfig) (io.Writer, error) {
	mw := NewMultiWriter()
	if len(appenders) == 0 {
		return mw.Add(os.Stdout), nil
	}
	for _, ac := range appenders {
		switch ac.Type {
		case "console":
			mw.Add(os.Stdout)
		case "file":
			var opt FileAppenderOpt
			if err := mapstructure.Decode(ac.Options, &opt); err != nil {
				return nil, fmt.Errorf("invalid file appender options: %w", err)
			}
			if opt.Filename == "" {
				return nil, fmt.Errorf("file appender requires 'filename' option")
			}
			mw.AddFileAppender(opt)
		default:
			return nil, fmt.Errorf("unknown appender type: %s", ac.Type)
		}
	}
	return mw, nil
}
