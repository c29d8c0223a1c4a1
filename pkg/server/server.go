package server

import (
	"EH-Filter/pkg/sensitive"
	"EH-Filter/pkg/system/sysPrint"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	DefaultMaxBodySize = 1 << 20
	// MaxCachedTextSize 超过该长度的文本不进入缓存
	MaxCachedTextSize = 4 << 10
	shutdownTimeout   = 5 * time.Second
)

var (
	methodNotAllowed = []byte("Method not allowed.")
	bodyTooLarge     = []byte("Request body too large.")
)

// Server 敏感词过滤 HTTP 接口
type Server struct {
	holder      *sensitive.Holder
	cache       *cache.Cache // 为 nil 表示不缓存
	maxBodySize int64
	httpServer  *http.Server
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewServer cacheTTL 为 0 时不缓存过滤结果
func NewServer(holder *sensitive.Holder, cacheTTL time.Duration) *Server {
	s := &Server{
		holder:      holder,
		maxBodySize: DefaultMaxBodySize,
		stop:        make(chan struct{}),
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/filter", s.handleFilter)
	mux.HandleFunc("/check", s.handleCheck)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write(methodNotAllowed)
		return "", false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			_, _ = w.Write(bodyTooLarge)
			return "", false
		}
		sysPrint.PrintlnErrorMsg("read request body failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return "", false
	}
	return string(body), true
}

// handleFilter 请求体为待过滤文本，返回替换后的文本；空白文本返回 204
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	res := s.filter(text)
	if res == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := io.WriteString(w, res)
	if err != nil {
		sysPrint.PrintlnErrorMsg(err.Error())
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, strconv.FormatBool(s.holder.Contains(text)))
}

type cacheEntry struct {
	text   string
	res    string
	masked int
}

// filter 缓存键为词典版本号加文本的 xxhash，重新加载词典后旧结果自然失效；
// 命中时比对原文，避免哈希冲突返回错误结果
func (s *Server) filter(text string) string {
	if s.cache == nil || len(text) > MaxCachedTextSize {
		return s.holder.Filter(text)
	}
	key := strconv.FormatUint(s.holder.Generation(), 10) + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
	if v, found := s.cache.Get(key); found {
		if e := v.(cacheEntry); e.text == text {
			sensitive.RecordFiltered(e.res, e.masked)
			return e.res
		}
	}
	res, n := s.holder.FilterCount(text)
	s.cache.SetDefault(key, cacheEntry{text: text, res: res, masked: n})
	return res
}

// ServeListener 阻塞直到收到关闭信号或 Shutdown 被调用
func (s *Server) ServeListener(listener net.Listener) error {
	sysPrint.PrintlnSystemMsg("EH-Filter start listening at:" + listener.Addr().String() + ", ready to accept connections.")

	serveErr := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中断信号或关闭命令来停止服务
	signalQuit := make(chan os.Signal, 1)
	signal.Notify(signalQuit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalQuit)
	select {
	case <-signalQuit:
		sysPrint.PrintlnAndLogWriteSystemMsg("EH-Filter receive shutdown signal...")
	case <-s.stop:
		sysPrint.PrintlnAndLogWriteSystemMsg("EH-Filter receive shutdown command...")
	case err := <-serveErr:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return <-serveErr
}

func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}
