package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrie(t *testing.T) {
	trie := NewTrie()
	trie.Insert("赌博")
	trie.Insert("badword")

	res := trie.Search("赌博")
	if !res {
		t.Errorf("expect:%v, actual:%v", true, res)
	}
	res = trie.Search("badword")
	if !res {
		t.Errorf("expect:%v, actual:%v", true, res)
	}
	res = trie.Search("bad")
	if res {
		t.Errorf("expect:%v, actual:%v", false, res)
	}
	res = trie.PrefixSearch("badwordsss")
	if !res {
		t.Errorf("expect:%v, actual:%v", true, res)
	}
	res = trie.PrefixSearch("badwor")
	if res {
		t.Errorf("expect:%v, actual:%v", false, res)
	}
}

func TestTrieInsertEmptyWord(t *testing.T) {
	trie := NewTrie()
	trie.Insert("")

	assert.False(t, trie.Root().IsEnd())
	assert.False(t, trie.Search(""))
	assert.False(t, trie.PrefixSearch("anything"))
	assert.Equal(t, 0, trie.Len())
}

func TestTrieInsertIdempotent(t *testing.T) {
	trie := NewTrie()
	trie.Insert("abc")
	trie.Insert("abc")

	assert.Equal(t, 1, trie.Len())
	assert.True(t, trie.Search("abc"))

	count := 0
	for node := trie.Root(); ; {
		var next *TrieNode
		node.ForEachChild(func(_ rune, child *TrieNode) {
			count++
			next = child
		})
		if next == nil {
			break
		}
		node = next
	}
	assert.Equal(t, 3, count)
}

func TestTrieNodeChild(t *testing.T) {
	trie := NewTrie()
	trie.Insert("ab")
	trie.Insert("ac")

	a, ok := trie.Root().Child('a')
	require.True(t, ok)
	assert.False(t, a.IsEnd())

	b, ok := a.Child('b')
	require.True(t, ok)
	assert.True(t, b.IsEnd())

	_, ok = a.Child('d')
	assert.False(t, ok)

	_, ok = trie.Root().Child('b')
	assert.False(t, ok)

	var keys []rune
	a.ForEachChild(func(ch rune, _ *TrieNode) {
		keys = append(keys, ch)
	})
	assert.ElementsMatch(t, []rune{'b', 'c'}, keys)
}

func TestTrieSharedPrefix(t *testing.T) {
	trie := NewTrie()
	trie.Insert("ab")
	trie.Insert("abc")

	assert.Equal(t, 2, trie.Len())
	assert.True(t, trie.Search("ab"))
	assert.True(t, trie.Search("abc"))
	assert.False(t, trie.Search("a"))
}
