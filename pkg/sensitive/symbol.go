package sensitive

import "unicode"

const (
	// 0x2E80-0x9FFF 为中日韩部首、标点与表意文字，属于需要匹配的内容
	cjkStart = 0x2E80
	cjkEnd   = 0x9FFF
)

// IsSkippable 判断字符是否为匹配时可以跳过的符号。
// 字母、数字、组合附加符号以及 CJK 范围内的字符永远不可跳过。
func IsSkippable(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
		return false
	}
	return r < cjkStart || r > cjkEnd
}
