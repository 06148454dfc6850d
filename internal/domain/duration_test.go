package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBlockDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"小时", "2h", 7200},
		{"月按30天折算", "1M", 2592000},
		{"天", "3d", 259200},
		{"分钟", "15m", 900},
		{"秒", "45s", 45},
		{"无单位按秒", "100", 100},
		{"空串视为永久", "", 0},
		{"无法解析视为永久", "abc", 0},
		{"单位在前无效", "h2", 0},
		{"负数无效", "-5s", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBlockDuration(tt.input))
		})
	}
}

func TestParseBlockArgs(t *testing.T) {
	t.Run("带时长与原因", func(t *testing.T) {
		seconds, reason := ParseBlockArgs("/block 1h spam")
		assert.Equal(t, int64(3600), seconds)
		assert.Equal(t, "spam", reason)
	})

	t.Run("仅原因", func(t *testing.T) {
		seconds, reason := ParseBlockArgs("/block 广告骚扰")
		assert.Equal(t, int64(0), seconds)
		assert.Equal(t, "广告骚扰", reason)
	})

	t.Run("裸数字归入原因", func(t *testing.T) {
		seconds, reason := ParseBlockArgs("/block 100 spam")
		assert.Equal(t, int64(0), seconds)
		assert.Equal(t, "100 spam", reason)
	})

	t.Run("无参数", func(t *testing.T) {
		seconds, reason := ParseBlockArgs("/block")
		assert.Equal(t, int64(0), seconds)
		assert.Empty(t, reason)
	})
}
