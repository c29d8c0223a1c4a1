package config

import (
	"EH-Filter/pkg/sensitive"
	"EH-Filter/pkg/system/sysPrint"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	defaultHttpAddr        = "127.0.0.1:5300"
	defaultManagerAddr     = "127.0.0.1:5301"
	defaultConfigFilePath  = "config.yaml"
	defaultDictionaryPath  = "sensitive-words.txt"
	defaultDictionaryWatch = false
	defaultMatcher         = sensitive.Naive
	defaultCacheOption     = true
	defaultCacheTTL        = 5 * time.Minute
	defaultLogFile         = "log.txt"
)

var (
	ConfigFilePath = defaultConfigFilePath
)

type FilterConfig struct {
	HttpAddr        string `yaml:"http-addr"`        // HTTP 过滤接口地址
	ManagerAddr     string `yaml:"manager-addr"`     // manager 连接地址
	DictionaryPath  string `yaml:"dictionary-path"`  // 敏感词词典路径，一行一个词
	DictionaryWatch bool   `yaml:"dictionary-watch"` // 词典文件变化时自动重新加载

	// 替换敏感词的掩码，不能为空
	MaskToken string                `yaml:"mask-token"`
	Matcher   sensitive.MatcherType `yaml:"matcher"` // naive 或 aho-corasick，两者输出一致

	CacheOption bool          `yaml:"cache-option"` // HTTP 过滤结果缓存开关
	CacheTTL    time.Duration `yaml:"cache-ttl"`    // 缓存过期时间（开启缓存后有效）
	LogFile     string        `yaml:"log-file"`     // 日志文件，为空则只输出到 stderr
}

func DefaultConfig() *FilterConfig {
	return &FilterConfig{
		HttpAddr:        defaultHttpAddr,
		ManagerAddr:     defaultManagerAddr,
		DictionaryPath:  defaultDictionaryPath,
		DictionaryWatch: defaultDictionaryWatch,
		MaskToken:       sensitive.DefaultMaskToken,
		Matcher:         defaultMatcher,
		CacheOption:     defaultCacheOption,
		CacheTTL:        defaultCacheTTL,
		LogFile:         defaultLogFile,
	}
}

// NewFilterConfig 读取 path 处的配置文件，文件不存在时按默认配置创建
func NewFilterConfig(fs afero.Fs, path string) (*FilterConfig, error) {
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		fc := DefaultConfig()
		if err = WriteConfig(fs, path, fc); err != nil {
			sysPrint.PrintlnSystemMsg("Failed to create config file: " + err.Error())
			return nil, err
		}
		return fc, nil
	}

	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		sysPrint.PrintlnSystemMsg("Failed to open config file: " + err.Error())
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	fc := DefaultConfig()
	if err = yaml.Unmarshal(buf, fc); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err = fc.Validate(); err != nil {
		return nil, err
	}
	return fc, nil
}

// Validate 检查配置是否合法
func (fc *FilterConfig) Validate() error {
	if fc.MaskToken == "" {
		return sysPrint.ErrEmptyMaskToken
	}
	// 管理端按行读写
	if strings.ContainsAny(fc.MaskToken, "\r\n") {
		return sysPrint.ErrMaskTokenNewline
	}
	if !fc.Matcher.Valid() {
		return sysPrint.ErrUnknownMatcher
	}
	if _, _, err := net.SplitHostPort(fc.HttpAddr); err != nil {
		return sysPrint.ErrHttpAddrInvalid
	}
	if _, _, err := net.SplitHostPort(fc.ManagerAddr); err != nil {
		return sysPrint.ErrManagerAddrInvalid
	}
	if fc.CacheTTL < 0 {
		return sysPrint.ErrCacheTTLNegative
	}
	return nil
}

func (fc *FilterConfig) FilterOptions() sensitive.Options {
	return sensitive.Options{
		MaskToken: fc.MaskToken,
		Matcher:   fc.Matcher,
	}
}

// WriteConfig 将 fc 写入本地配置文件
func WriteConfig(fs afero.Fs, path string, fc *FilterConfig) error {
	yamlData, err := yaml.Marshal(fc)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, yamlData, 0644)
}
