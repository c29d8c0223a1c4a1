package sensitive

import (
	"EH-Filter/pkg/utils/datastructure"
	"strings"
	"unicode"
)

type MatcherType string

const (
	Naive       MatcherType = "naive"
	AhoCorasick MatcherType = "aho-corasick"
)

const DefaultMaskToken = "***"

func (m MatcherType) Valid() bool {
	return m == Naive || m == AhoCorasick
}

type Options struct {
	MaskToken string      // 为空时使用 DefaultMaskToken
	Matcher   MatcherType // 为空时使用 Naive
}

// Filter 敏感词过滤器。创建后不可修改，可被多个 goroutine 并发使用。
type Filter struct {
	trie    *datastructure.Trie
	mask    string
	matcher MatcherType
	ac      *automaton
}

// New 基于 trie 创建过滤器，之后调用方不能再修改 trie
func New(trie *datastructure.Trie, opts Options) *Filter {
	if trie == nil {
		trie = datastructure.NewTrie()
	}
	f := &Filter{
		trie:    trie,
		mask:    opts.MaskToken,
		matcher: opts.Matcher,
	}
	if f.mask == "" {
		f.mask = DefaultMaskToken
	}
	if !f.matcher.Valid() {
		f.matcher = Naive
	}
	if f.matcher == AhoCorasick {
		f.ac = newAutomaton(trie)
	}
	return f
}

// Filter 返回将敏感词替换为掩码后的文本。text 为空或只含空白字符时返回空字符串，
// 调用方应视其为“没有需要过滤的内容”。
func (f *Filter) Filter(text string) string {
	out, _ := f.Count(text)
	return out
}

// Count 同 Filter，额外返回被替换的敏感词个数
func (f *Filter) Count(text string) (string, int) {
	if isBlank(text) {
		return "", 0
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	var n int
	if f.ac != nil {
		n = f.ac.scan(runes, f.mask, &b)
	} else {
		n = scanNaive(f.trie.Root(), runes, f.mask, &b)
	}
	return b.String(), n
}

// Contains 判断文本中是否含有敏感词
func (f *Filter) Contains(text string) bool {
	_, n := f.Count(text)
	return n > 0
}

func (f *Filter) Words() int {
	return f.trie.Len()
}

func (f *Filter) MaskToken() string {
	return f.mask
}

func (f *Filter) Matcher() MatcherType {
	return f.matcher
}

func isBlank(s string) bool {
	for _, r := range s {
		if !isWhitespace(r) {
			return false
		}
	}
	return true
}

// isWhitespace 空格分隔符与控制空白符，不换行空格（U+00A0 U+2007 U+202F）和 U+0085 不算空白
func isWhitespace(r rune) bool {
	switch r {
	case '\u00a0', '\u2007', '\u202f':
		return false
	case '\t', '\n', '\v', '\f', '\r', '\u001c', '\u001d', '\u001e', '\u001f':
		return true
	}
	return unicode.In(r, unicode.Zs, unicode.Zl, unicode.Zp)
}

// scanNaive 三指针扫描：node 指向当前匹配到的前缀树节点，
// begin 为候选窗口起点，position 为当前检查的字符。
func scanNaive(root *datastructure.TrieNode, runes []rune, mask string, b *strings.Builder) int {
	node := root
	begin, position := 0, 0
	matches := 0
	for position < len(runes) {
		r := runes[position]

		if IsSkippable(r) {
			// 尚未开始匹配时符号原样保留，匹配过程中的符号直接丢弃
			if node == root {
				b.WriteRune(r)
				begin++
			}
			position++
			continue
		}

		next, ok := node.Child(r)
		switch {
		case !ok:
			// 以 begin 开头的串不是敏感词，只放弃 begin 处的一个字符
			b.WriteRune(runes[begin])
			begin++
			position = begin
			node = root
		case next.IsEnd():
			b.WriteString(mask)
			matches++
			position++
			begin = position
			node = root
		default:
			node = next
			position++
		}
	}
	b.WriteString(string(runes[begin:]))
	return matches
}
