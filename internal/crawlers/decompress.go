package crawlers

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/RecoveryAshes/webmirror/internal/utils"
	"github.com/andybalholm/brotli"
)

// captureHeader 内部请求头, 标记需要保留原始响应体的请求, 发送前删除
const captureHeader = "X-Webmirror-Capture"

// rawBodies 按请求标记保存解码后、charset转换前的响应体
type rawBodies struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func newRawBodies() *rawBodies {
	return &rawBodies{bodies: make(map[string][]byte)}
}

func (r *rawBodies) put(key string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[key] = body
}

// take 取出并删除key对应的响应体
func (r *rawBodies) take(key string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	body, ok := r.bodies[key]
	delete(r.bodies, key)
	return body, ok
}

// decodingTransport 在响应交给colly之前解码 Content-Encoding
// colly会按Content-Type的charset把响应体转为UTF-8, 带captureHeader的请求
// 在转换之前把原始字节存入raw, 保存到磁盘的是这份字节
type decodingTransport struct {
	base http.RoundTripper
	raw  *rawBodies
}

// withDecoding 返回一个响应体已解码的HTTP客户端副本, raw为nil时不保留原始响应体
func withDecoding(client *http.Client, raw *rawBodies) *http.Client {
	wrapped := *client
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if dt, ok := base.(*decodingTransport); ok {
		base = dt.base
	}
	wrapped.Transport = &decodingTransport{base: base, raw: raw}
	return &wrapped
}

// RoundTrip 实现http.RoundTripper接口
func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Header.Get(captureHeader)
	if key != "" {
		req = req.Clone(req.Context())
		req.Header.Del(captureHeader)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	encoding := resp.Header.Get("Content-Encoding")
	reader, ok, err := decodeReader(encoding, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("解码响应失败 [%s]: %w", req.URL, err)
	}
	if ok {
		resp.Body = &decodedBody{Reader: reader, closer: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
		resp.Uncompressed = true
	}

	if key == "" || t.raw == nil {
		return resp, nil
	}

	// 重定向时每一跳都会覆盖, 最终保留最后一个响应
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("读取响应失败 [%s]: %w", req.URL, err)
	}
	t.raw.put(key, body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// decodedBody 解码后的响应体, Close关闭原始连接
type decodedBody struct {
	io.Reader
	closer io.Closer
}

// Close 实现io.Closer接口
func (b *decodedBody) Close() error {
	return b.closer.Close()
}

// decodeReader 根据Content-Encoding包装解码器
// 第二个返回值表示是否进行了解码; 未知编码原样返回
func decodeReader(contentEncoding string, r io.Reader) (io.Reader, bool, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "", "identity":
		return r, false, nil

	case "br":
		return brotli.NewReader(r), true, nil

	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if errors.Is(err, io.EOF) {
			// 空响应体
			return bytes.NewReader(nil), true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("gzip读取失败: %w", err)
		}
		return zr, true, nil

	case "deflate":
		// 规范要求zlib封装, 部分服务器发送裸deflate流
		br := bufio.NewReader(r)
		header, err := br.Peek(2)
		if len(header) == 0 && err != nil {
			return br, true, nil
		}
		if err == nil && isZlibHeader(header) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, false, fmt.Errorf("deflate读取失败: %w", err)
			}
			return zr, true, nil
		}
		return flate.NewReader(br), true, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return r, false, nil
	}
}

// isZlibHeader 判断是否为zlib头 (RFC 1950)
func isZlibHeader(h []byte) bool {
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}
