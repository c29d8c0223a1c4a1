package sensitive

import (
	"EH-Filter/pkg/system/sysPrint"
	"EH-Filter/pkg/utils/datastructure"
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	utf8BOM        = "\ufeff"
	maxWordLineLen = 1024 * 1024
)

// ReadDictionary 逐行读取敏感词，一行一个词，空行忽略
func ReadDictionary(r io.Reader) (*datastructure.Trie, error) {
	trie := datastructure.NewTrie()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxWordLineLen)
	first := true
	for scanner.Scan() {
		word := strings.TrimRight(scanner.Text(), "\r")
		if first {
			word = strings.TrimPrefix(word, utf8BOM)
			first = false
		}
		trie.Insert(word)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read dictionary")
	}
	return trie, nil
}

// LoadDictionary 从文件系统读取词典
func LoadDictionary(fs afero.Fs, path string) (*datastructure.Trie, error) {
	if path == "" {
		return nil, sysPrint.ErrNoDictionary
	}
	info, err := fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dictionary %s", path)
	}
	if !info.Mode().IsRegular() {
		return nil, sysPrint.ErrDictionaryNotRegular
	}
	file, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dictionary %s", path)
	}
	defer file.Close()
	trie, err := ReadDictionary(file)
	if err != nil {
		return nil, errors.Wrapf(err, "load dictionary %s", path)
	}
	return trie, nil
}

// NewFromDictionary 加载词典并创建过滤器。加载失败只记录日志，
// 返回基于空词典的过滤器（原样输出），过滤失败不能阻塞内容提交。
func NewFromDictionary(fs afero.Fs, path string, opts Options) *Filter {
	trie, err := LoadDictionary(fs, path)
	if err != nil {
		sysPrint.PrintlnAndLogWriteErrorMsg("Failed to load sensitive word dictionary, filtering disabled.",
			zap.String("path", path), zap.Error(err))
		return New(nil, opts)
	}
	sysPrint.PrintlnAndLogWriteSystemMsg("Sensitive word dictionary loaded.",
		zap.String("path", path), zap.Int("words", trie.Len()))
	return New(trie, opts)
}
