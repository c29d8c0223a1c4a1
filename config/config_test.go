package config

import (
	"EH-Filter/pkg/sensitive"
	"EH-Filter/pkg/system/sysPrint"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterConfigCreatesDefault(t *testing.T) {
	fs := afero.NewMemMapFs()

	fc, err := NewFilterConfig(fs, "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), fc)

	data, err := afero.ReadFile(fs, "config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "mask-token:")
	assert.Contains(t, string(data), "***")
	assert.Contains(t, string(data), "matcher: naive")

	// 再次读取得到相同的配置
	again, err := NewFilterConfig(fs, "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, fc, again)
}

func TestNewFilterConfigPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "c.yaml", []byte(`
mask-token: "###"
matcher: aho-corasick
cache-ttl: 30s
dictionary-path: /etc/words.txt
`), 0644))

	fc, err := NewFilterConfig(fs, "c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "###", fc.MaskToken)
	assert.Equal(t, sensitive.AhoCorasick, fc.Matcher)
	assert.Equal(t, 30*time.Second, fc.CacheTTL)
	assert.Equal(t, "/etc/words.txt", fc.DictionaryPath)
	assert.Equal(t, defaultHttpAddr, fc.HttpAddr)
	assert.Equal(t, defaultManagerAddr, fc.ManagerAddr)

	opts := fc.FilterOptions()
	assert.Equal(t, "###", opts.MaskToken)
	assert.Equal(t, sensitive.AhoCorasick, opts.Matcher)
}

func TestNewFilterConfigInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		err  error
	}{
		{"empty mask", `mask-token: ""`, sysPrint.ErrEmptyMaskToken},
		{"mask with newline", `mask-token: "*\n*"`, sysPrint.ErrMaskTokenNewline},
		{"unknown matcher", `matcher: regex`, sysPrint.ErrUnknownMatcher},
		{"bad http addr", `http-addr: localhost`, sysPrint.ErrHttpAddrInvalid},
		{"bad manager addr", `manager-addr: "5301"`, sysPrint.ErrManagerAddrInvalid},
		{"negative ttl", `cache-ttl: -1s`, sysPrint.ErrCacheTTLNegative},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "c.yaml", []byte(c.yaml), 0644))
			_, err := NewFilterConfig(fs, "c.yaml")
			assert.Equal(t, c.err, err)
		})
	}
}

func TestNewFilterConfigMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "c.yaml", []byte("mask-token: [unterminated"), 0644))

	_, err := NewFilterConfig(fs, "c.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config c.yaml")
}

func TestWriteConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	fc := DefaultConfig()
	fc.MaskToken = "<censored>"
	fc.DictionaryWatch = true
	require.NoError(t, WriteConfig(fs, "saved.yaml", fc))

	loaded, err := NewFilterConfig(fs, "saved.yaml")
	require.NoError(t, err)
	assert.Equal(t, fc, loaded)
}
