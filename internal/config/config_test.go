package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// noUserConfig 让测试不受本机 XDG 配置目录影响。
func noUserConfig(t *testing.T) {
	t.Helper()
	old := searchUserConfig
	searchUserConfig = func(string) (string, error) { return "", os.ErrNotExist }
	t.Cleanup(func() { searchUserConfig = old })
}

func TestLoadEffective_DefaultsWithoutFile(t *testing.T) {
	noUserConfig(t)
	eff, err := LoadEffective(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("未找到配置文件时 ConfigFile 应为空，实际 %q", eff.ConfigFile)
	}
	if eff.ServerURL != DefaultServer || eff.Route != "/" || eff.LogLevel != "info" {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.RequestTimeout != 10*time.Second {
		t.Fatalf("期望超时 10s，实际 %v", eff.RequestTimeout)
	}
	if eff.Browser.Headless || eff.Browser.Remote != "" {
		t.Fatalf("浏览器默认值不符合预期：%+v", eff.Browser)
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()
	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "missing.json"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_JSONPreferredOverYAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "narvaro.json"), []byte(`{"server":"http://json.test"}`))
	writeFile(t, filepath.Join(cwd, "narvaro.yaml"), []byte("server: http://yaml.test\n"))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ServerURL != "http://json.test" {
		t.Fatalf("期望使用 narvaro.json，实际 server=%q", eff.ServerURL)
	}
	if eff.ConfigFile != filepath.Join(cwd, "narvaro.json") {
		t.Fatalf("ConfigFile 不符合预期：%q", eff.ConfigFile)
	}
}

func TestLoadEffective_YAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "narvaro.yaml"), []byte(`server: https://brand.example/
route: home
proxy:
  url: http://127.0.0.1:3128
request_timeout: 500
log_level: DEBUG
browser:
  remote: ws://127.0.0.1:9222/devtools/browser/x
  headless: true
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ServerURL != "https://brand.example" {
		t.Fatalf("server 应去掉末尾 '/'，实际 %q", eff.ServerURL)
	}
	if eff.Route != "/home" {
		t.Fatalf("route 应补齐 '/'，实际 %q", eff.Route)
	}
	if eff.ProxyURL != "http://127.0.0.1:3128" {
		t.Fatalf("proxy 不符合预期：%q", eff.ProxyURL)
	}
	if eff.RequestTimeout != 120*time.Second {
		t.Fatalf("超时应截断到 120s，实际 %v", eff.RequestTimeout)
	}
	if eff.SlogLevel() != slog.LevelDebug {
		t.Fatalf("期望 debug，实际 %v", eff.SlogLevel())
	}
	if !eff.Browser.Headless || eff.Browser.Remote == "" {
		t.Fatalf("browser 字段不符合预期：%+v", eff.Browser)
	}
}

func TestLoadEffective_CLIOverridesFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "narvaro.json"), []byte(`{"server":"http://file.test","route":"/admin/users","log_level":"warn","browser":{"headless":true}}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		Server: "http://cli.test", ServerSet: true,
		LogLevel: "error", LogLevelSet: true,
		Headless: false, HeadlessSet: true, // --headless=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ServerURL != "http://cli.test" || eff.LogLevel != "error" {
		t.Fatalf("CLI 应覆盖配置文件：%+v", eff)
	}
	if eff.Route != "/admin/users" {
		t.Fatalf("未指定的字段应来自配置文件，实际 route=%q", eff.Route)
	}
	if eff.Browser.Headless {
		t.Fatalf("--headless=false 应覆盖配置文件")
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"broken json": `{"server":`,
		"bad server":  `{"server":"kiosk.test"}`,
		"bad level":   `{"log_level":"verbose"}`,
		"bad proxy":   `{"proxy":{"url":"127.0.0.1:3128"}}`,
		"ftp server":  `{"server":"ftp://kiosk.test"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, "narvaro.json"), []byte(body))
			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
			}
		})
	}
}

func TestLoadEffective_TimeoutLowerBound(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "narvaro.json"), []byte(`{"request_timeout":-5}`))
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.RequestTimeout != time.Second {
		t.Fatalf("超时应截断到 1s，实际 %v", eff.RequestTimeout)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func TestLoadEffective_UserConfigDirFallback(t *testing.T) {
	home := t.TempDir()
	p := filepath.Join(home, "narvaro", "narvaro.yaml")
	writeFile(t, p, []byte("server: http://xdg.test\nroute: /home\n"))

	old := searchUserConfig
	searchUserConfig = func(rel string) (string, error) {
		cand := filepath.Join(home, rel)
		if _, err := os.Stat(cand); err != nil {
			return "", err
		}
		return cand, nil
	}
	t.Cleanup(func() { searchUserConfig = old })

	eff, err := LoadEffective(t.TempDir(), CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != p || eff.ServerURL != "http://xdg.test" || eff.Route != "/home" {
		t.Fatalf("期望读取用户配置目录，实际 %+v", eff)
	}

	// 工作目录下的配置优先。
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "narvaro.json"), []byte(`{"server":"http://cwd.test"}`))
	eff, err = LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ServerURL != "http://cwd.test" {
		t.Fatalf("期望工作目录配置优先，实际 %q", eff.ServerURL)
	}
}
