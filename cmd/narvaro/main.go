package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/John-Robertt/narvaro/internal/api"
	"github.com/John-Robertt/narvaro/internal/config"
	"github.com/John-Robertt/narvaro/internal/infra/httpx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		os.Exit(2)
	}
	for _, a := range args[1:] {
		if isHelp(a) {
			printUsage(os.Stdout)
			return
		}
	}

	ca, err := parseArgs(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if code := cmd(ca); code != 0 {
		os.Exit(code)
	}
}

// commands 的返回值就是进程退出码：0 成功；1 运行失败；2 用法错误。
var commands = map[string]func(cliArgs) int{
	"scan":  scanCmd,
	"kiosk": kioskCmd,
	"mark":  markCmd,
	"admin": adminCmd,
	"login": loginCmd,
	"check": checkCmd,
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  narvaro scan  [--login] [--report <file>] [通用参数]
  narvaro kiosk [--remote ws://...] [--headless] [--report <file>] [通用参数]
  narvaro mark  <alarm-id> <department-id> [--arrival 分钟] [--comment 文本] [--login] [通用参数]
  narvaro admin <delete-user|revoke-tag|close-alarm> <id> [--yes] [--login] [通用参数]
  narvaro login [通用参数]
  narvaro check [route] [--login] [通用参数]

命令：
  scan   控制台扫描：每行一个 UID（读卡器键盘输入），stdout 输出会话报告
         同一时刻只处理一个请求：请求在途期间到达的行会被丢弃并计入 ignored，
         因此管道输入不会逐行排队提交
  kiosk  启动 kiosk 浏览器，接管页面上的扫描/登录/出勤/管理交互
  mark   为某个警报的某个部门标记出勤
  admin  执行一次管理操作（需要确认；--yes 跳过确认）
  login  以 4 位 ID + 4 位密码登录并验证会话
  check  检查页面是否具备交互层依赖的元素

通用参数：
  --config <path>     配置文件（默认查找 ./narvaro.json 或 ./narvaro.yaml）
  --server <url>      服务端地址（默认 http://localhost:5000）
  --route <path>      起始路由（默认 /）
  --log-level <lvl>   debug|info|warn|error
  -h, --help          显示帮助
`)
}

// setup 是各命令共用的初始化：配置 → 日志 → HTTP client。
// 失败时已经输出错误，返回的 code 即退出码。
func setup(ca cliArgs) (config.EffectiveConfig, *api.Client, int) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return config.EffectiveConfig{}, nil, 1
	}

	eff, err := config.LoadEffective(cwd, ca.configArgs())
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return config.EffectiveConfig{}, nil, 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: eff.SlogLevel()}))
	slog.SetDefault(logger)

	hc, err := httpx.NewClient(httpx.Options{ProxyURL: eff.ProxyURL, Timeout: eff.RequestTimeout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 HTTP client 失败：%v\n", err)
		return eff, nil, 1
	}
	client, err := api.New(eff.ServerURL, hc, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化服务端客户端失败：%v\n", err)
		return eff, nil, 1
	}
	return eff, client, 0
}

// emit 输出一个命令结果。
//
// 规则：
// - stdout 是 TTY：输出人类可读的 summary
// - stdout 非 TTY：stdout 必须且仅输出一个 JSON（summary 走 stderr）
func emit(v any, summary string) {
	if isTTY(os.Stdout) {
		fmt.Fprintln(os.Stdout, summary)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(v)
	fmt.Fprintln(os.Stderr, summary)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return io.Discard, false
}
