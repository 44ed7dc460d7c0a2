package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrKeyNotFound 签名密钥不存在（强制刷新一次之后仍未命中）
var ErrKeyNotFound = errors.New("signing key not found")

// KeyProvider 验签密钥提供者接口（注入到认证中间件，不走全局状态）
type KeyProvider interface {
	// Key 按 kid 取 RSA 公钥
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Config JWKS 拉取配置
type Config struct {
	URL     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`     // 缓存有效期，响应带 max-age 时以其为准
	Timeout time.Duration `mapstructure:"timeout"` // 拉取超时
}

// Cache 带 TTL 的 JWKS 密钥缓存
// 刷新触发条件：TTL 过期，或密钥轮换导致 kid 未命中（强制刷新一次）
type Cache struct {
	cfg    Config
	client *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	ttl       time.Duration
}

// NewCache 创建 JWKS 缓存
func NewCache(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Cache{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		keys:   make(map[string]*rsa.PublicKey),
		ttl:    cfg.TTL,
	}
}

// Key 实现 KeyProvider 接口
func (c *Cache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.fetchedAt) < c.ttl {
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
	}

	// 过期或 kid 未命中（可能是密钥轮换），强制刷新一次
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	key, ok := c.keys[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// refresh 拉取 JWKS 并重建缓存（调用方持锁）
func (c *Cache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request failed: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks failed: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.keys = keys
	c.fetchedAt = time.Now()
	c.ttl = cacheTTL(resp.Header.Get("Cache-Control"), c.cfg.TTL)
	return nil
}

// parseRSAKey 从 base64url 的 n/e 还原 RSA 公钥
func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}

	exponent := 0
	for _, b := range eBytes {
		exponent = exponent<<8 | int(b)
	}
	if exponent == 0 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: exponent,
	}, nil
}

// cacheTTL 解析 Cache-Control 的 max-age，下限 60 秒
func cacheTTL(cacheControl string, fallback time.Duration) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if !strings.HasPrefix(part, "max-age=") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimPrefix(part, "max-age="))
		if err != nil {
			break
		}
		if seconds < 60 {
			seconds = 60
		}
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
