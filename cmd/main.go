package main

import (
	"EH-Filter/config"
	"EH-Filter/pkg/manager"
	"EH-Filter/pkg/sensitive"
	"EH-Filter/pkg/server"
	"EH-Filter/pkg/system/sysPrint"
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const banner = `
 ______     __  __     ______   __     __         ______   ______     ______
/\  ___\   /\ \_\ \   /\  ___\ /\ \   /\ \       /\__  _\ /\  ___\   /\  == \
\ \  __\   \ \  __ \  \ \  __\ \ \ \  \ \ \____  \/_/\ \/ \ \  __\   \ \  __<
 \ \_____\  \ \_\ \_\  \ \_\    \ \_\  \ \_____\    \ \_\  \ \_____\  \ \_\ \_\
  \/_____/   \/_/\/_/   \/_/     \/_/   \/_____/     \/_/   \/_____/   \/_/ /_/
`

// maxLineSize filter 命令从 stdin 读取的单行上限
const maxLineSize = 16 << 20

func main() {
	if err := newRootCmd(afero.NewOsFs(), os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs, in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "eh-filter",
		Short:        "Sensitive word filter service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&config.ConfigFilePath, "config", config.ConfigFilePath, "path of the config file, created with defaults when missing")
	root.AddCommand(newServeCmd(fs, out), newFilterCmd(fs, in, out))
	root.SetOut(out)
	return root
}

func loadConfig(fs afero.Fs) (*config.FilterConfig, error) {
	return config.NewFilterConfig(fs, config.ConfigFilePath)
}

func newServeCmd(fs afero.Fs, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP filter endpoint and the TCP manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadConfig(fs)
			if err != nil {
				return err
			}
			if err = sysPrint.Init(fc.LogFile); err != nil {
				return err
			}
			defer sysPrint.LogClose()
			fmt.Fprintf(out, "%s\n", banner)

			holder := sensitive.NewHolder(fs, fc.DictionaryPath, fc.FilterOptions())

			cacheTTL := fc.CacheTTL
			if !fc.CacheOption {
				cacheTTL = 0
			}
			srv := server.NewServer(holder, cacheTTL)
			m := manager.NewManager(holder)
			m.SetInfo("http address", fc.HttpAddr)
			m.SetInfo("cache option", fmt.Sprint(fc.CacheOption))
			m.SetInfo("dictionary watch", fmt.Sprint(fc.DictionaryWatch))
			m.OnShutdown(srv.Shutdown)

			var watcher *sensitive.Watcher
			if fc.DictionaryWatch {
				watcher, err = sensitive.NewWatcher(holder)
				if err != nil {
					sysPrint.PrintlnAndLogWriteErrorMsg("Failed to create dictionary watcher.", zap.Error(err))
				} else {
					go func() {
						if err := watcher.Watch(); err != nil {
							sysPrint.PrintlnAndLogWriteErrorMsg("Dictionary watcher stopped.", zap.Error(err))
						}
					}()
					defer watcher.Close()
				}
			}

			// 端口绑定失败时直接退出
			httpListener, err := net.Listen("tcp", fc.HttpAddr)
			if err != nil {
				sysPrint.PrintlnAndLogWriteFatalMsg("EH-Filter failed to listen.", zap.String("addr", fc.HttpAddr), zap.Error(err))
			}
			managerListener, err := net.Listen("tcp", fc.ManagerAddr)
			if err != nil {
				sysPrint.PrintlnAndLogWriteFatalMsg("EH-Filter-Manager failed to listen.", zap.String("addr", fc.ManagerAddr), zap.Error(err))
			}

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				if err := srv.ServeListener(httpListener); err != nil {
					sysPrint.PrintlnAndLogWriteErrorMsg(err.Error())
				}
				m.Shutdown()
			}()
			go func() {
				defer wg.Done()
				if err := m.ServeListener(managerListener); err != nil {
					sysPrint.PrintlnAndLogWriteErrorMsg(err.Error())
				}
				srv.Shutdown()
			}()
			wg.Wait()
			sysPrint.PrintlnSystemMsg("EH-Filter is now ready to exit, bye bye...")
			return nil
		},
	}
}

func newFilterCmd(fs afero.Fs, in io.Reader, out io.Writer) *cobra.Command {
	var (
		dictPath  string
		maskToken string
		matcher   string
	)
	cmd := &cobra.Command{
		Use:   "filter [text...]",
		Short: "Filter the given text, or every line of stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadConfig(fs)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dict") {
				fc.DictionaryPath = dictPath
			}
			if cmd.Flags().Changed("mask") {
				fc.MaskToken = maskToken
			}
			if cmd.Flags().Changed("matcher") {
				fc.Matcher = sensitive.MatcherType(matcher)
			}
			if err = fc.Validate(); err != nil {
				return err
			}
			f := sensitive.NewFromDictionary(fs, fc.DictionaryPath, fc.FilterOptions())

			if len(args) > 0 {
				fmt.Fprintln(out, f.Filter(strings.Join(args, " ")))
				return nil
			}
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
			for scanner.Scan() {
				fmt.Fprintln(out, f.Filter(scanner.Text()))
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&dictPath, "dict", "", "dictionary path, overrides dictionary-path in the config file")
	cmd.Flags().StringVar(&maskToken, "mask", "", "mask token, overrides mask-token in the config file")
	cmd.Flags().StringVar(&matcher, "matcher", "", "naive or aho-corasick, overrides matcher in the config file")
	return cmd
}
