package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 将任意文本转换为URL安全的slug。
// 先做NFKD分解并去掉组合附加符号（如 ã -> a），再小写，
// 把连续的非 [a-z0-9] 字符替换为单个连字符，最后去掉首尾连字符。
// 对任意输入都有结果，且 Slugify(Slugify(x)) == Slugify(x)。
func Slugify(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, text)
	if err != nil {
		s = text
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
