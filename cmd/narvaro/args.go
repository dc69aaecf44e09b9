package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/narvaro/internal/config"
)

// cliArgs 是所有子命令共用的参数集合；每个子命令只取自己关心的部分。
// 与配置文件重叠的参数保留“是否显式指定”，用于覆盖优先级。
type cliArgs struct {
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

	Yes   bool
	Login bool

	// ReportPath 非空时，会话结束后把报告 JSON 原子写入该文件（stdout 输出不变）。
	ReportPath string

	Arrival    int
	ArrivalSet bool
	Comment    string

	Positional []string
}

// valueFlags 需要一个值：支持 "--x v" 与 "--x=v" 两种写法。
var valueFlags = map[string]bool{
	"--config":    true,
	"--server":    true,
	"--route":     true,
	"--log-level": true,
	"--remote":    true,
	"--arrival":   true,
	"--comment":   true,
	"--report":    true,
}

func parseArgs(args []string) (cliArgs, error) {
	var a cliArgs

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			a.Positional = append(a.Positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			a.Positional = append(a.Positional, arg)
			continue
		}

		name, val, hasVal := strings.Cut(arg, "=")
		if valueFlags[name] && !hasVal {
			if i+1 >= len(args) {
				return cliArgs{}, fmt.Errorf("%s 需要一个值", name)
			}
			i++
			val = args[i]
		}

		switch name {
		case "--config":
			a.ConfigPath = val
		case "--server":
			a.Server, a.ServerSet = val, true
		case "--route":
			a.Route, a.RouteSet = val, true
		case "--log-level":
			a.LogLevel, a.LogLevelSet = strings.ToLower(val), true
		case "--remote":
			a.Remote, a.RemoteSet = val, true
		case "--arrival":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 0 {
				return cliArgs{}, fmt.Errorf("--arrival 必须是非负整数（分钟），实际是 %q", val)
			}
			a.Arrival, a.ArrivalSet = n, true
		case "--comment":
			a.Comment = val
		case "--report":
			if strings.TrimSpace(val) == "" {
				return cliArgs{}, fmt.Errorf("--report 不能为空")
			}
			a.ReportPath = val
		case "--headless":
			b, err := parseBoolFlag(name, val, hasVal)
			if err != nil {
				return cliArgs{}, err
			}
			a.Headless, a.HeadlessSet = b, true
		case "--yes", "-y":
			b, err := parseBoolFlag(name, val, hasVal)
			if err != nil {
				return cliArgs{}, err
			}
			a.Yes = b
		case "--login":
			b, err := parseBoolFlag(name, val, hasVal)
			if err != nil {
				return cliArgs{}, err
			}
			a.Login = b
		default:
			return cliArgs{}, fmt.Errorf("未知参数 %q", arg)
		}
	}

	if a.LogLevelSet {
		switch a.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			return cliArgs{}, fmt.Errorf("--log-level 只能是 debug/info/warn/error，实际是 %q", a.LogLevel)
		}
	}
	if a.ServerSet && strings.TrimSpace(a.Server) == "" {
		return cliArgs{}, fmt.Errorf("--server 不能为空")
	}
	return a, nil
}

func parseBoolFlag(name, val string, hasVal bool) (bool, error) {
	if !hasVal {
		return true, nil
	}
	switch val {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, val)
	}
}

func (a cliArgs) configArgs() config.CLIArgs {
	return config.CLIArgs{
		ConfigPath:  a.ConfigPath,
		Server:      a.Server,
		ServerSet:   a.ServerSet,
		Route:       a.Route,
		RouteSet:    a.RouteSet,
		LogLevel:    a.LogLevel,
		LogLevelSet: a.LogLevelSet,
		Remote:      a.Remote,
		RemoteSet:   a.RemoteSet,
		Headless:    a.Headless,
		HeadlessSet: a.HeadlessSet,
	}
}
