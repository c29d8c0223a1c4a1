package manager

import (
	"EH-Filter/pkg/sensitive"
	"EH-Filter/pkg/system/sysPrint"
	"bufio"
	"bytes"
	"errors"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

const (
	DefaultQueryBufferSize = 16384
	// MaxQuerySize 单条命令的最大长度，与 HTTP 接口的请求体上限一致
	MaxQuerySize = 1 << 20
	// ReplyEnd 每条回复的结束标记，INFO 回复内部只使用 \n 换行
	ReplyEnd = "\r\n"
)

var (
	ErrUnknownCommand = []byte(sysPrint.ERROR + "Unknown command error.")
	ErrQueryTooLong   = []byte(sysPrint.ERROR + "Command too long.")
	ErrFailToRead     = "manager failed to read client message:"
	ErrReplyClient    = "reply to client failed, client addr:"
	ReplyOK           = []byte("OK")
)

// Manager 敏感词过滤管理端，每行（以 \n 结尾）是一条命令，命令名大小写不敏感，
// 命令参数（待过滤文本）原样传递，每条回复以 ReplyEnd 结尾
type Manager struct {
	holder     *sensitive.Holder
	info       map[string]string // INFO 命令额外输出的键值
	listener   net.Listener
	clients    map[*client]struct{}
	clientsMu  sync.Mutex
	commandMap map[string]func(c *client, args [][]byte) error
	bufferPool *BufferPool
	stop       chan struct{}
	stopOnce   sync.Once
	onShutdown func()
}

type client struct {
	conn net.Conn
}

func NewManager(holder *sensitive.Holder) *Manager {
	m := &Manager{
		holder:     holder,
		info:       make(map[string]string),
		clients:    make(map[*client]struct{}),
		commandMap: make(map[string]func(c *client, args [][]byte) error),
		bufferPool: NewBufferPool(DefaultQueryBufferSize),
		stop:       make(chan struct{}),
	}
	m.registerCommands()
	return m
}

// SetInfo 设置 INFO 命令中额外展示的信息，需在 Serve 前调用
func (m *Manager) SetInfo(key, value string) {
	m.info[key] = value
}

// OnShutdown 设置收到 SHUTDOWN 命令后执行的回调，需在 Serve 前调用
func (m *Manager) OnShutdown(fn func()) {
	m.onShutdown = fn
}

// BufferPool byte slice 对象池
type BufferPool struct {
	pool *sync.Pool
}

func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		},
	}
}

func (p *BufferPool) Get() []byte {
	return p.pool.Get().([]byte)
}

func (p *BufferPool) Put(b []byte) {
	p.pool.Put(b[:cap(b)])
}

func (m *Manager) addClient(conn net.Conn) *client {
	cli := &client{
		conn: conn,
	}
	m.clientsMu.Lock()
	m.clients[cli] = struct{}{}
	m.clientsMu.Unlock()
	sysPrint.LogWriteSystemMsg("client: " + conn.RemoteAddr().String() + " connected.")
	return cli
}

func (m *Manager) removeClient(c *client) {
	m.clientsMu.Lock()
	delete(m.clients, c)
	m.clientsMu.Unlock()
	c.conn.Close()
}

// ClientCount 当前连接的客户端数量
func (m *Manager) ClientCount() int {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	return len(m.clients)
}

// ServeListener 在 listener 上接受连接，直到收到关闭信号或 SHUTDOWN 命令
func (m *Manager) ServeListener(listener net.Listener) error {
	m.listener = listener
	sysPrint.PrintlnSystemMsg("EH-Filter-Manager start listening at:" + listener.Addr().String() + ", ready to accept connections.")
	signalQuit := make(chan os.Signal, 1)
	signal.Notify(signalQuit, syscall.SIGINT, syscall.SIGTERM)

	// 监听关闭信号
	go func() {
		select {
		case <-signalQuit:
			sysPrint.PrintlnAndLogWriteSystemMsg("EH-Filter-Manager receive shutdown signal...")
			m.Shutdown()
		case <-m.stop:
			sysPrint.PrintlnAndLogWriteSystemMsg("EH-Filter-Manager receive shutdown command...")
		}
		signal.Stop(signalQuit)
		m.beforeExit()
	}()

	// 接受连接并处理
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-m.stop:
				return nil
			default:
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				sysPrint.PrintlnErrorMsg(err.Error())
				continue
			}
		}
		cli := m.addClient(conn)
		// 在新的 goroutine 中处理连接
		go m.handleConnection(cli)
	}
}

func (m *Manager) handleConnection(c *client) {
	defer m.removeClient(c)
	buffer := m.bufferPool.Get()
	defer func() {
		// 超长命令撑大的缓冲区不放回对象池
		if cap(buffer) <= DefaultQueryBufferSize {
			m.bufferPool.Put(buffer)
		}
	}()
	reader := bufio.NewReaderSize(c.conn, DefaultQueryBufferSize)
	for {
		// 读取客户端发送的一行命令
		query, err := readQuery(reader, buffer)
		if query != nil {
			buffer = query[:0]
		}
		if err == errQueryTooLong {
			if err = c.Reply(ErrQueryTooLong); err != nil {
				sysPrint.LogWriteErrorMsg(ErrReplyClient + c.conn.RemoteAddr().String())
				return
			}
			continue
		}
		if err != nil {
			sysPrint.LogWriteSystemMsg(ErrFailToRead+err.Error(), zap.String("client", c.conn.RemoteAddr().String()))
			return
		}
		args := parseCommand(query)
		if len(args) == 0 {
			if err = c.Reply(ErrUnknownCommand); err != nil {
				sysPrint.LogWriteErrorMsg(ErrReplyClient + c.conn.RemoteAddr().String())
				return
			}
			continue
		}
		commandName := string(bytes.ToLower(args[0]))
		commandFunc, ok := m.commandMap[commandName]
		if !ok {
			err = c.Reply(ErrUnknownCommand)
			if err != nil {
				sysPrint.LogWriteErrorMsg(ErrReplyClient + c.conn.RemoteAddr().String())
				return
			}
			continue
		}
		err = commandFunc(c, args)
		if err != nil {
			if err.Error() == ErrReplyClient {
				sysPrint.LogWriteErrorMsg(ErrReplyClient + c.conn.RemoteAddr().String())
				return
			}
			err = c.Reply([]byte(err.Error()))
			if err != nil {
				sysPrint.LogWriteErrorMsg(ErrReplyClient + c.conn.RemoteAddr().String())
				return
			}
			continue
		}
	}
}

var errQueryTooLong = errors.New("query too long")

// readQuery 读取一行命令（包含结尾的 \n）追加到 buf[:0]，
// 超过 MaxQuerySize 的行被整行丢弃并返回 errQueryTooLong
func readQuery(r *bufio.Reader, buf []byte) ([]byte, error) {
	buf = buf[:0]
	tooLong := false
	for {
		line, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(line) > MaxQuerySize {
				tooLong = true
			} else {
				buf = append(buf, line...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return buf, err
		}
		if tooLong {
			return buf, errQueryTooLong
		}
		return buf, nil
	}
}

// parseCommand 拆分为命令名与剩余文本两部分，剩余文本保持原样（只去掉行尾换行）
func parseCommand(msg []byte) [][]byte {
	msg = bytes.TrimRight(msg, "\r\n")
	msg = bytes.TrimLeft(msg, " \t")
	if len(msg) == 0 {
		return nil
	}
	idx := bytes.IndexAny(msg, " \t")
	if idx < 0 {
		return [][]byte{msg}
	}
	return [][]byte{msg[:idx], msg[idx+1:]}
}

func (c *client) Reply(buf []byte) error {
	err := c.sendToClient(buf)
	if err != nil {
		return err
	}
	return nil
}

func (c *client) sendToClient(msg []byte) error {
	bufs := net.Buffers{msg, []byte(ReplyEnd)}
	_, err := bufs.WriteTo(c.conn)
	if err != nil {
		return errors.New(ErrReplyClient)
	}
	return nil
}

func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *Manager) beforeExit() {
	if m.listener != nil {
		m.listener.Close()
	}
	m.clientsMu.Lock()
	for c := range m.clients {
		c.conn.Close()
	}
	m.clientsMu.Unlock()
}
