package datastructure

// TrieNode 前缀树节点，子节点由父节点独占
type TrieNode struct {
	children map[rune]*TrieNode
	isEnd    bool
}

// Trie 敏感词前缀树，构建完成后只读，可被多个 goroutine 并发读取
type Trie struct {
	root  *TrieNode
	words int
}

func newTrieNode() *TrieNode {
	return &TrieNode{
		children: make(map[rune]*TrieNode),
		isEnd:    false,
	}
}

func NewTrie() *Trie {
	return &Trie{
		root: newTrieNode(),
	}
}

// Insert 插入一个词，空字符串直接忽略（根节点永远不是结束节点）
func (t *Trie) Insert(word string) {
	if word == "" {
		return
	}
	node := t.root
	for _, ch := range word {
		if node.children[ch] == nil {
			node.children[ch] = newTrieNode()
		}
		node = node.children[ch]
	}
	if !node.isEnd {
		node.isEnd = true
		t.words++
	}
}

func (t *Trie) Root() *TrieNode {
	return t.root
}

// Len 返回词典中不重复的词数
func (t *Trie) Len() int {
	return t.words
}

func (t *Trie) Search(word string) bool {
	if word == "" {
		return false
	}
	node := t.root
	for _, ch := range word {
		if node.children[ch] == nil {
			return false
		}
		node = node.children[ch]
	}
	return node.isEnd
}

// PrefixSearch 判断 word 是否以词典中某个词开头
func (t *Trie) PrefixSearch(word string) bool {
	node := t.root
	for _, ch := range word {
		if node.children[ch] == nil {
			return false
		}
		node = node.children[ch]
		if node.isEnd {
			return true
		}
	}
	return node.isEnd
}

// Child 查找字符 ch 对应的子节点，不会修改前缀树
func (n *TrieNode) Child(ch rune) (*TrieNode, bool) {
	child, ok := n.children[ch]
	return child, ok
}

func (n *TrieNode) IsEnd() bool {
	return n.isEnd
}

// ForEachChild 遍历所有子节点，顺序不保证
func (n *TrieNode) ForEachChild(fn func(ch rune, child *TrieNode)) {
	for ch, child := range n.children {
		fn(ch, child)
	}
}
