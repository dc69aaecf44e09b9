package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultServer 是出勤服务端的默认地址（本机开发服务）。
	DefaultServer = "http://localhost:5000"
	// DefaultRoute 是 kiosk 打开的默认页面（登录 + 扫描页）。
	DefaultRoute = "/"
	// DefaultRequestTimeout 是单次 HTTP 请求的默认超时（秒）。
	DefaultRequestTimeout = 10
	// DefaultLogLevel 是默认日志级别。
	DefaultLogLevel = "info"
)

// 配置文件名：按顺序查找，找到第一个即停止。
var fileNames = []string{"narvaro.json", "narvaro.yaml"}

// searchUserConfig 在 XDG 配置目录中查找 rel；测试可替换。
var searchUserConfig = xdg.SearchConfigFile

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息，
// 这样 --headless=false 才能覆盖 browser.headless=true。
type CLIArgs struct {
	// ConfigPath 非空时必须存在。
	ConfigPath string

	Server    string
	ServerSet bool

	Route    string
	RouteSet bool

	LogLevel    string
	LogLevelSet bool

	Remote    string
	RemoteSet bool

	Headless    bool
	HeadlessSet bool
}

// FileConfig 对应 narvaro.json / narvaro.yaml。
type FileConfig struct {
	Server         string         `json:"server" yaml:"server"`
	Route          string         `json:"route" yaml:"route"`
	Proxy          *ProxyConfig   `json:"proxy" yaml:"proxy"`
	RequestTimeout int            `json:"request_timeout" yaml:"request_timeout"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	Browser        *BrowserConfig `json:"browser" yaml:"browser"`
}

type ProxyConfig struct {
	URL string `json:"url" yaml:"url"`
}

type BrowserConfig struct {
	// Remote 是已运行浏览器的 DevTools 地址（ws://...）；为空时本地启动。
	Remote   string `json:"remote" yaml:"remote"`
	Headless *bool  `json:"headless" yaml:"headless"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	// ConfigFile 是实际读取的配置文件（未找到时为空）。
	ConfigFile string

	ServerURL      string
	Route          string
	ProxyURL       string
	RequestTimeout time.Duration
	LogLevel       string

	Browser Browser
}

type Browser struct {
	Remote   string
	Headless bool
}

// SlogLevel 把 LogLevel 转为 slog.Level（已在加载时校验过）。
func (e EffectiveConfig) SlogLevel() slog.Level {
	lv, _ := parseLevel(e.LogLevel)
	return lv
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 给了 --config：读取该文件（必须存在）
// 2) 否则依次尝试 <cwd>/narvaro.json、<cwd>/narvaro.yaml
// 3) 再尝试 XDG 配置目录下的 narvaro/narvaro.json、narvaro/narvaro.yaml
// 4) 都不存在时全部使用默认值
//
// 覆盖优先级：CLI > 配置文件 > 默认值。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
	)

	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		return merge(cli, fc, cfgPath)
	}

	for _, name := range fileNames {
		p := filepath.Join(cwdAbs, name)
		f, exists, err := readFileConfig(p)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
		if exists {
			return merge(cli, f, p)
		}
	}

	for _, name := range fileNames {
		p, err := searchUserConfig(filepath.Join("narvaro", name))
		if err != nil {
			continue
		}
		f, exists, err := readFileConfig(p)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
		if exists {
			return merge(cli, f, p)
		}
	}
	return merge(cli, FileConfig{}, "")
}

func merge(cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) error { return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err} }

	server := pick(cli.ServerSet, cli.Server, fc.Server, DefaultServer)
	u, err := url.Parse(server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return EffectiveConfig{}, invalid(fmt.Errorf("server 必须是 http/https 绝对地址：%q", server))
	}
	server = strings.TrimRight(server, "/")

	route := pick(cli.RouteSet, cli.Route, fc.Route, DefaultRoute)
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}

	level := strings.ToLower(pick(cli.LogLevelSet, cli.LogLevel, fc.LogLevel, DefaultLogLevel))
	if _, err := parseLevel(level); err != nil {
		return EffectiveConfig{}, invalid(err)
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		pu, err := url.Parse(proxyURL)
		if err != nil {
			return EffectiveConfig{}, invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
		if pu.Scheme == "" || pu.Host == "" {
			return EffectiveConfig{}, invalid(fmt.Errorf("proxy.url 缺少 scheme 或 host：%q", proxyURL))
		}
	}

	timeout := fc.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	// 范围 [1, 120] 秒；超出截断。
	if timeout < 1 {
		timeout = 1
	}
	if timeout > 120 {
		timeout = 120
	}

	var br Browser
	if fc.Browser != nil {
		br.Remote = strings.TrimSpace(fc.Browser.Remote)
		if fc.Browser.Headless != nil {
			br.Headless = *fc.Browser.Headless
		}
	}
	if cli.RemoteSet {
		br.Remote = strings.TrimSpace(cli.Remote)
	}
	if cli.HeadlessSet {
		br.Headless = cli.Headless
	}

	return EffectiveConfig{
		ConfigFile:     cfgPath,
		ServerURL:      server,
		Route:          route,
		ProxyURL:       proxyURL,
		RequestTimeout: time.Duration(timeout) * time.Second,
		LogLevel:       level,
		Browser:        br,
	}, nil
}

// pick 实现 CLI > 配置文件 > 默认 的字符串字段合并；空白值视为未设置。
func pick(cliSet bool, cliVal, fileVal, def string) string {
	if cliSet && strings.TrimSpace(cliVal) != "" {
		return strings.TrimSpace(cliVal)
	}
	if s := strings.TrimSpace(fileVal); s != "" {
		return s
	}
	return def
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", s)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析配置文件（按扩展名选择 JSON 或 YAML）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = json.Unmarshal(b, &fc)
	}
	if err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
