// Package logging builds the logrus logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to out at the named level.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l, nil
}

// Open is like New but appends to path when it is non-empty, falling back to
// fallback otherwise. The returned closer releases the file.
func Open(level, path string, fallback io.Writer) (*logrus.Logger, io.Closer, error) {
	if path == "" {
		l, err := New(level, fallback)
		return l, nopCloser{}, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l, err := New(level, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
