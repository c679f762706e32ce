package display

import "github.com/sirupsen/logrus"

// Log is a Writer for boards without a display. It logs each change.
type Log struct {
	log   logrus.FieldLogger
	last  string
	shown bool
}

// NewLog creates a logging writer.
func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log}
}

func (l *Log) Show(text string) error {
	if l.shown && text == l.last {
		return nil
	}
	l.last, l.shown = text, true
	l.log.WithField("display", text).Info("Display updated")
	return nil
}
