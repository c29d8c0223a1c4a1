package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
)

const (
	defaultHost           = "127.0.0.1"
	defaultPort           = 5301
	defaultReadBufferSize = 16384
	replyEnd              = "\r\n"
)

var (
	host           string
	port           int
	readBufferSize int
)

func init() {
	flag.StringVarP(&host, "host", "h", defaultHost, "manager host(ip address)")
	flag.IntVarP(&port, "port", "p", defaultPort, "manager port")
	flag.IntVar(&readBufferSize, "readBufferSize", defaultReadBufferSize, "client read buffer size")
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "-----help-----")
	fmt.Fprintln(out, "info\t"+"show EH-Filter information")
	fmt.Fprintln(out, "Filter [text]\t"+"replace sensitive words in text with the mask token")
	fmt.Fprintln(out, "Check [text]\t"+"query whether text contains sensitive words")
	fmt.Fprintln(out, "Reload\t"+"reload the sensitive word dictionary")
	fmt.Fprintln(out, "Shutdown\t"+"shutdown server gracefully")
	fmt.Fprintln(out, "-h / -help \t"+"display help")
	fmt.Fprintln(out, "-q / -quit \t"+"exit client")
}

func main() {
	flag.Parse()
	connAddr := host + ":" + strconv.Itoa(port)
	dial := func() (net.Conn, error) {
		return net.Dial("tcp", connAddr)
	}
	conn, err := dial()
	if err != nil {
		log.Fatal("connect EH-Filter manager error: ", err)
	}
	run(connAddr, conn, dial, os.Stdin, os.Stdout)
}

// run 交互式读取命令并打印回复，连接断开后每次输入前尝试重连
func run(connAddr string, conn net.Conn, dial func() (net.Conn, error), in io.Reader, out io.Writer) {
	disconnect := false
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	replyReader := bufio.NewReaderSize(conn, readBufferSize)
	inputReader := bufio.NewReader(in)
	for {
		if !disconnect {
			fmt.Fprint(out, connAddr+"> ")
		} else {
			newConn, err := dial()
			if err != nil {
				fmt.Fprint(out, connAddr+"(disconnect)> ")
			} else {
				conn.Close()
				conn = newConn
				replyReader = bufio.NewReaderSize(conn, readBufferSize)
				fmt.Fprint(out, connAddr+"> ")
				disconnect = false
			}
		}

		input, err := inputReader.ReadString('\n')
		if err != nil && input == "" {
			return
		}
		input = strings.Trim(input, "\r\n")
		if strings.TrimSpace(input) == "" {
			continue
		}

		// 只有客户端自身的选项不区分大小写，命令文本原样发送
		switch strings.ToLower(input) {
		case "-q", "-quit":
			fmt.Fprintln(out, "Bye,Have a good day!")
			return
		case "-h", "-help":
			printHelp(out)
			continue
		}

		if disconnect {
			continue
		}

		_, err = conn.Write([]byte(input + "\n"))
		if err != nil {
			fmt.Fprintln(out, "write to EH-Filter failed, err:", err)
			disconnect = true
			continue
		}
		reply, err := readReply(replyReader)
		if err != nil {
			fmt.Fprintln(out, "receive from EH-Filter failed, err:", err)
			disconnect = true
			continue
		}
		fmt.Fprintln(out, reply)
	}
}

// readReply 读取一条回复，回复以 \r\n 结尾，内部可能含有 \n
func readReply(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		sb.WriteString(line)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(sb.String(), replyEnd) {
			return strings.TrimSuffix(sb.String(), replyEnd), nil
		}
	}
}
