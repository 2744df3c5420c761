package common

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	_ "liyu1981.xyz/field-presence-service/pkg/testing"
)

func TestLoggingCapture(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	logger := GetLogger()
	logger.Info("Test log message", zap.String("key", "value"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Test log message") {
		t.Errorf("expected log output to contain message, got: %s", logOutput)
	}
}

func TestCategoryLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	GetCategoryLogger(LoggerNameTracker, LoggerCategorySweep).Info("sweep finished")

	logOutput := buf.String()
	if !strings.Contains(logOutput, `"logger":"tracker"`) {
		t.Errorf("expected logger name in output, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, `"category":"sweep"`) {
		t.Errorf("expected category field in output, got: %s", logOutput)
	}
}

func TestMapperReducer(t *testing.T) {
	doubled := Mapper([]int{1, 2, 3}, func(i int) int { return i * 2 })
	if len(doubled) != 3 || doubled[2] != 6 {
		t.Errorf("unexpected mapper result: %v", doubled)
	}

	sum := Reducer(doubled, func(acc int, i int) int { return acc + i }, 0)
	if sum != 12 {
		t.Errorf("expected 12, got %d", sum)
	}
}
