package manager

import (
	"EH-Filter/pkg/system/sysPrint"
	"EH-Filter/pkg/utils/byteStringConv"
	"sort"
	"strconv"
	"strings"
)

const (
	errWrongNumberArgs = sysPrint.ERROR + "wrong number of arguments"
	trueString         = "true"
	falseString        = "false"
)

var (
	ContainsReply    = []byte(trueString)
	NotContainsReply = []byte(falseString)
)

// RegisterCommand 注册命令，命令名全小写输入
func (m *Manager) RegisterCommand(cmdName string, cmdFunc func(c *client, args [][]byte) error) {
	if _, exists := m.commandMap[cmdName]; !exists {
		m.commandMap[cmdName] = cmdFunc
	}
}

func (m *Manager) registerCommands() {
	m.RegisterCommand("info", m.execInfo)
	m.RegisterCommand("filter", m.execFilter)
	m.RegisterCommand("check", m.execCheck)
	m.RegisterCommand("reload", m.execReload)
	m.RegisterCommand("shutdown", m.execShutdown)
}

// execInfo info 命令
// 获取过滤器相关信息
func (m *Manager) execInfo(c *client, args [][]byte) error {
	if len(args) != 1 {
		return c.Reply([]byte(errWrongNumberArgs))
	}
	f := m.holder.Load()

	builder := strings.Builder{}
	builder.WriteString("[INFO]\n")
	builder.WriteString("[Filter]\n")
	builder.WriteString("manager address: " + m.listener.Addr().String() + "\n")
	keys := make([]string, 0, len(m.info))
	for k := range m.info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		builder.WriteString(k + ": " + m.info[k] + "\n")
	}
	builder.WriteString("dictionary path: " + m.holder.Path() + "\n")
	builder.WriteString("dictionary words: " + strconv.Itoa(f.Words()) + "\n")
	builder.WriteString("dictionary generation: " + strconv.FormatUint(m.holder.Generation(), 10) + "\n")
	builder.WriteString("mask token: " + f.MaskToken() + "\n")
	builder.WriteString("matcher: " + string(f.Matcher()) + "\n")
	builder.WriteString("connected clients: " + strconv.Itoa(m.ClientCount()) + "\n")

	return c.Reply(byteStringConv.StringToBytes(builder.String()))
}

// execFilter 过滤命令
// 输入格式：Filter [text]
// 示例：Filter 这里可以赌博吗
// text 为其余全部内容（包括空格），返回替换敏感词后的文本
func (m *Manager) execFilter(c *client, args [][]byte) error {
	if len(args) != 2 {
		return c.Reply([]byte(errWrongNumberArgs))
	}
	res := m.holder.Filter(byteStringConv.BytesToString(args[1]))
	if res == "" {
		return c.Reply([]byte(sysPrint.ErrEmptyText.Error()))
	}
	return c.Reply(byteStringConv.StringToBytes(res))
}

// execCheck 检查命令
// 输入格式：Check [text]
// 文本含有敏感词返回 true，否则返回 false
func (m *Manager) execCheck(c *client, args [][]byte) error {
	if len(args) != 2 {
		return c.Reply([]byte(errWrongNumberArgs))
	}
	if m.holder.Contains(byteStringConv.BytesToString(args[1])) {
		return c.Reply(ContainsReply)
	}
	return c.Reply(NotContainsReply)
}

// execReload 重新加载词典命令
// 输入格式：Reload
// 加载失败时继续使用原词典，并返回错误信息
func (m *Manager) execReload(c *client, args [][]byte) error {
	if len(args) != 1 {
		return c.Reply([]byte(errWrongNumberArgs))
	}
	if err := m.holder.Reload(); err != nil {
		msg := err.Error()
		if !strings.HasPrefix(msg, sysPrint.ERROR) {
			msg = sysPrint.ERROR + msg
		}
		return c.Reply([]byte(msg))
	}
	return c.Reply(ReplyOK)
}

// execShutdown 关闭命令
// 输入格式：Shutdown
func (m *Manager) execShutdown(c *client, args [][]byte) error {
	if len(args) != 1 {
		return c.Reply([]byte(errWrongNumberArgs))
	}
	err := c.Reply(ReplyOK)
	if err != nil {
		return err
	}
	m.Shutdown()
	if m.onShutdown != nil {
		m.onShutdown()
	}
	return nil
}
