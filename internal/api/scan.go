package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/John-Robertt/narvaro/internal/domain"
	"github.com/John-Robertt/narvaro/internal/infra/httpx"
)

// ScanNFC 把一次扫描提交到 /auth/nfc-scan 并在边界处完成结果校验。
//
// HTTP 状态码不参与判定：服务端对业务失败同样返回 JSON（与浏览器端 response.json() 一致）。
// 任何拿不到合法 JSON 对象的情况都返回 *TransportError。
func (c *Client) ScanNFC(ctx context.Context, attempt domain.ScanAttempt) (domain.Outcome, error) {
	ctx = httpx.WithRequestID(ctx, attempt.ID)
	form := url.Values{"rawUid": {attempt.RawUID}}

	resp, err := c.do(ctx, http.MethodPost, domain.PathNFCScan, form)
	if err != nil {
		return domain.Outcome{}, &TransportError{Op: "nfc-scan", URL: c.Resolve(domain.PathNFCScan), Err: err}
	}
	status := resp.StatusCode
	b, err := readBody(resp)
	if err != nil {
		return domain.Outcome{}, &TransportError{Op: "nfc-scan", URL: c.Resolve(domain.PathNFCScan), StatusCode: status, Err: err}
	}

	out, err := domain.DecodeOutcome(b)
	if err != nil {
		return domain.Outcome{}, &TransportError{Op: "nfc-scan", URL: c.Resolve(domain.PathNFCScan), StatusCode: status, Err: err}
	}
	c.log.Debug("api: nfc-scan", "attempt", attempt.ID, "status", status, "result", out.Result)
	return out, nil
}
