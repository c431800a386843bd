package logging

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_unknownLevelFallsBackToInfo(t *testing.T) {
	logger := New(nil, "not-a-level", false)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

func Test_New_respectsRequestedLevel(t *testing.T) {
	logger := New(nil, "debug", false)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
}

func Test_DailyLogPath_expandsDatePattern(t *testing.T) {
	when := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	path, err := DailyLogPath("/var/log/ad-%Y%m%d.log", when)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/ad-20260304.log", path)
}

func Test_DailyLogPath_rejectsTrailingPercent(t *testing.T) {
	_, err := DailyLogPath("/var/log/ad-%", time.Now())
	assert.Error(t, err)
}
