package domain

import (
	"fmt"
	"strconv"
)

// ChatProfile 外部会话信息查询的成功结果。
// 查询失败由 error 返回值表达，不在此结构内携带标志位。
type ChatProfile struct {
	FirstName string
	LastName  string
}

// FullName 拼接可读姓名
func (p *ChatProfile) FullName() string {
	if p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	return p.FirstName
}

// DisplayName 渲染 "姓名(id)" 形式的展示名；profile 为 nil 时退化为纯 id
func DisplayName(id int64, profile *ChatProfile) string {
	if profile == nil || profile.FirstName == "" {
		return strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s(%d)", profile.FullName(), id)
}
