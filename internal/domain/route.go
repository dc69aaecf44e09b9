package domain

import (
	"net/url"
	"strings"
)

// 客户端路由（与服务端模板约定一致）。
const (
	RouteRoot                = "/"
	RouteHome                = "/home"
	RouteDepartmentSelection = "/nfc/department-selection"
)

// 服务端接口路径。
const (
	PathNFCScan     = "/auth/nfc-scan"
	PathLogin       = "/auth/login"
	PathAdminUsers  = "/admin/users"
	PathAdminTags   = "/admin/tags"
	PathAdminAlarms = "/admin/alarms"
)

// AttendancePath 拼出 /attendance/{alarmID}/{departmentID}，两段都做 path 转义。
func AttendancePath(alarmID, departmentID string) string {
	return "/attendance/" + url.PathEscape(alarmID) + "/" + url.PathEscape(departmentID)
}

// DepartmentSelectionURL 返回消歧页地址；tagID 为空时不带 query。
func DepartmentSelectionURL(tagID string) string {
	tagID = strings.TrimSpace(tagID)
	if tagID == "" {
		return RouteDepartmentSelection
	}
	return RouteDepartmentSelection + "?tag_id=" + url.QueryEscape(tagID)
}

// CleanRoute 把任意 URL/路径规范化为路由路径（只保留 path，空值视为 "/"）。
func CleanRoute(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RouteRoot
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(u.Path, "/") {
		return "/" + u.Path
	}
	return u.Path
}

// ResolveRoute 把路由（可带 query）解析为 base 之下的绝对地址。
//
// 规则：
// - base 的 path 是应用的挂载前缀，路由总是挂在它下面
// - 已经带着前缀的路径（服务端重定向给出的 Location）不重复添加
// - 绝对 URL 原样返回
func ResolveRoute(base *url.URL, route string) string {
	root := *base
	root.Path = strings.TrimRight(root.Path, "/")
	root.RawPath = ""
	root.RawQuery = ""
	root.Fragment = ""

	ref, err := url.Parse(strings.TrimSpace(route))
	if err != nil {
		return root.String() + route
	}
	if ref.IsAbs() || ref.Host != "" {
		return ref.String()
	}

	prefix := root.Path
	if prefix != "" && (ref.Path == prefix || strings.HasPrefix(ref.Path, prefix+"/")) {
		trimPath(ref, prefix)
	}
	trimPath(ref, "/")
	root.Path = prefix + "/"
	return root.ResolveReference(ref).String()
}

// trimPath 同时裁剪 Path 与 RawPath，保留 %2F 这类转义。
func trimPath(u *url.URL, prefix string) {
	u.Path = strings.TrimPrefix(u.Path, prefix)
	if u.RawPath != "" {
		u.RawPath = strings.TrimPrefix(u.RawPath, prefix)
	}
}

// RouteOf 把页面地址还原为路由路径：去掉 base 的挂载前缀后再 CleanRoute。
func RouteOf(base *url.URL, raw string) string {
	p := CleanRoute(raw)
	if base == nil {
		return p
	}
	prefix := strings.TrimRight(base.Path, "/")
	switch {
	case prefix == "":
		return p
	case p == prefix:
		return RouteRoot
	case strings.HasPrefix(p, prefix+"/"):
		return CleanRoute(strings.TrimPrefix(p, prefix))
	default:
		return p
	}
}
