package sensitive

import (
	"EH-Filter/pkg/system/sysPrint"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultWatchDebounce = 500 * time.Millisecond

// Watcher 监听词典文件变化并触发 Holder.Reload，只适用于操作系统文件系统
type Watcher struct {
	watcher  *fsnotify.Watcher
	holder   *Holder
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	done      chan struct{}
	closeOnce sync.Once
}

func NewWatcher(h *Holder) (*Watcher, error) {
	if h.Path() == "" {
		return nil, sysPrint.ErrNoDictionary
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  w,
		holder:   h,
		debounce: defaultWatchDebounce,
		done:     make(chan struct{}),
	}, nil
}

// Watch 开始监听，阻塞直到 Close 被调用
func (w *Watcher) Watch() error {
	absPath, err := filepath.Abs(w.holder.Path())
	if err != nil {
		return err
	}
	// 编辑器保存时常见“写临时文件再 rename”，因此监听父目录
	if err = w.watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}
	sysPrint.PrintlnSystemMsg("Watching sensitive word dictionary.", zap.String("path", absPath))

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			sysPrint.PrintlnErrorMsg("Dictionary watcher error.", zap.Error(err))
		case <-w.done:
			return nil
		}
	}
}

// scheduleReload 合并短时间内的多次文件事件
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		_ = w.holder.Reload()
	})
}

func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.watcher.Close()
	})
}
