package sensitive

import (
	"EH-Filter/pkg/utils/datastructure"
	"strings"
)

const rootState int32 = 0

type acNode struct {
	next   map[rune]int32
	fail   int32
	depth  int32
	output int32 // 失配链上（含自身）最近的结束节点，-1 表示没有
}

// automaton 由前缀树编译出的 Aho-Corasick 自动机，只在构建时写入
type automaton struct {
	nodes []acNode
}

func newAutomaton(trie *datastructure.Trie) *automaton {
	a := &automaton{
		nodes: []acNode{{next: make(map[rune]int32), fail: rootState, output: -1}},
	}

	type item struct {
		src *datastructure.TrieNode
		id  int32
	}
	// 按层遍历，保证计算失配指针时更浅的节点都已建好
	queue := []item{{src: trie.Root(), id: rootState}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cur.src.ForEachChild(func(ch rune, child *datastructure.TrieNode) {
			id := int32(len(a.nodes))
			fail := rootState
			if cur.id != rootState {
				fail = a.step(a.nodes[cur.id].fail, ch)
			}
			output := a.nodes[fail].output
			if child.IsEnd() {
				output = id
			}
			a.nodes = append(a.nodes, acNode{
				next:   make(map[rune]int32),
				fail:   fail,
				depth:  a.nodes[cur.id].depth + 1,
				output: output,
			})
			a.nodes[cur.id].next[ch] = id
			queue = append(queue, item{src: child, id: id})
		})
	}
	return a
}

func (a *automaton) step(s int32, r rune) int32 {
	for {
		if next, ok := a.nodes[s].next[r]; ok {
			return next
		}
		if s == rootState {
			return rootState
		}
		s = a.nodes[s].fail
	}
}

// scan 与 scanNaive 输出一致：在去掉可跳过符号后的字符序列上，
// 从左到右取每个起点处最短的匹配；若扫描到文本末尾仍处于未完成的匹配中，
// 剩余文本原样保留。
func (a *automaton) scan(runes []rune, mask string, b *strings.Builder) int {
	pos := make([]int, 0, len(runes)) // 非符号字符在原文中的下标
	for i, r := range runes {
		if !IsSkippable(r) {
			pos = append(pos, i)
		}
	}
	m := len(pos)

	// shortest[c]：以 c 开头的最短敏感词的结束位置
	shortest := make([]int, m)
	for i := range shortest {
		shortest[i] = -1
	}
	state := rootState
	for j := 0; j < m; j++ {
		state = a.step(state, runes[pos[j]])
		for o := a.nodes[state].output; o >= 0; o = a.nodes[a.nodes[o].fail].output {
			start := j - int(a.nodes[o].depth) + 1
			if shortest[start] < 0 {
				shortest[start] = j
			}
		}
	}

	// tail[c]：从 c 开始直到文本末尾都是前缀树中的一条路径
	tail := make([]bool, m)
	for s := state; s != rootState; s = a.nodes[s].fail {
		tail[m-int(a.nodes[s].depth)] = true
	}

	matches := 0
	next := 0
	for c := 0; c < m; {
		b.WriteString(string(runes[next:pos[c]]))
		switch {
		case shortest[c] >= 0:
			b.WriteString(mask)
			matches++
			next = pos[shortest[c]] + 1
			c = shortest[c] + 1
		case tail[c]:
			b.WriteString(string(runes[pos[c]:]))
			next = len(runes)
			c = m
		default:
			b.WriteRune(runes[pos[c]])
			next = pos[c] + 1
			c++
		}
	}
	b.WriteString(string(runes[next:]))
	return matches
}
