package domain

import (
	"regexp"
	"strconv"
)

var (
	durationRe  = regexp.MustCompile(`^(\d+)([Mdhms]?)$`)
	blockArgsRe = regexp.MustCompile(`^/?[a-z]+(?: +(\d+[Mdhms]))?(?: +(.*))?`)
)

// ParseBlockDuration 解析屏蔽时长字面量，返回秒数。
// 支持的单位后缀：M=30天、d=天、h=小时、m=分钟、s=秒；
// 纯数字按秒处理，空串或无法解析返回 0（表示永久屏蔽）。
func ParseBlockDuration(s string) int64 {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	num, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}

	switch m[2] {
	case "M":
		return num * 30 * 24 * 60 * 60
	case "d":
		return num * 24 * 60 * 60
	case "h":
		return num * 60 * 60
	case "m":
		return num * 60
	default:
		// "s" 或无单位都按秒
		return num
	}
}

// ParseBlockArgs 解析 /block 命令参数。
// 语法：/block [<数字><单位字母>] [自由文本原因]；
// 时长必须带单位字母，否则整段文本都视为原因。
func ParseBlockArgs(text string) (seconds int64, reason string) {
	m := blockArgsRe.FindStringSubmatch(text)
	if m == nil {
		return 0, ""
	}
	return ParseBlockDuration(m[1]), m[2]
}
