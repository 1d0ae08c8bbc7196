package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qs3c/creatorhub_server/config"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	logrus.SetOutput(buf)
	t.Cleanup(func() {
		logrus.SetOutput(os.Stdout)
	})
	return buf
}

func TestInit(t *testing.T) {
	t.Run("json format and level", func(t *testing.T) {
		Init(config.LogConfig{Level: "debug", Format: "json"})
		assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
		_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("text format", func(t *testing.T) {
		Init(config.LogConfig{Level: "warn", Format: "text"})
		assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
		_, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
		assert.True(t, ok)
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		Init(config.LogConfig{Level: "loud"})
		assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	})
}

func TestGormLogger_Trace(t *testing.T) {
	Init(config.LogConfig{Level: "debug", Format: "json"})
	buf := captureOutput(t)

	l := NewGormLogger()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "sql query error")
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Empty(t, buf.String())

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow sql query")
}
