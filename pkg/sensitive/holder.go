package sensitive

import (
	"EH-Filter/pkg/system/sysPrint"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Holder 持有当前生效的 Filter。重新加载词典时整体替换为新的不可变 Filter，
// 正在进行的过滤仍使用旧实例，不需要加锁。
type Holder struct {
	fs   afero.Fs
	path string
	opts Options

	current    atomic.Pointer[Filter]
	generation atomic.Uint64
	reloadMu   sync.Mutex // 串行化 Reload
}

// NewHolder 加载词典并创建 Holder，加载失败时以空词典启动
func NewHolder(fs afero.Fs, path string, opts Options) *Holder {
	h := &Holder{
		fs:   fs,
		path: path,
		opts: opts,
	}
	h.store(NewFromDictionary(fs, path, opts))
	return h
}

// NewStaticHolder 包装已构建的 Filter，没有词典路径，Reload 总是返回 ErrNoDictionary
func NewStaticHolder(f *Filter) *Holder {
	h := &Holder{fs: afero.NewMemMapFs()}
	h.store(f)
	return h
}

func (h *Holder) store(f *Filter) {
	h.current.Store(f)
	h.generation.Add(1)
	dictionaryWords.Set(float64(f.Words()))
}

func (h *Holder) Load() *Filter {
	return h.current.Load()
}

// Generation 每次成功替换 Filter 后加一
func (h *Holder) Generation() uint64 {
	return h.generation.Load()
}

func (h *Holder) Path() string {
	return h.path
}

func (h *Holder) Filter(text string) string {
	out, _ := h.FilterCount(text)
	return out
}

// FilterCount 返回过滤结果和替换次数，并记录指标
func (h *Holder) FilterCount(text string) (string, int) {
	out, n := h.Load().Count(text)
	RecordFiltered(out, n)
	return out, n
}

func (h *Holder) Contains(text string) bool {
	return h.Load().Contains(text)
}

// Reload 重新读取词典。读取失败时保留当前 Filter 并返回错误。
func (h *Holder) Reload() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	trie, err := LoadDictionary(h.fs, h.path)
	if err != nil {
		dictionaryReloads.WithLabelValues("failure").Inc()
		sysPrint.PrintlnAndLogWriteErrorMsg("Failed to reload sensitive word dictionary, keeping the current one.",
			zap.String("path", h.path), zap.Error(err))
		return err
	}
	h.store(New(trie, h.opts))
	dictionaryReloads.WithLabelValues("success").Inc()
	sysPrint.PrintlnAndLogWriteSystemMsg("Sensitive word dictionary reloaded.",
		zap.String("path", h.path), zap.Int("words", trie.Len()), zap.Uint64("generation", h.Generation()))
	return nil
}
