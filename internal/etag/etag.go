package etag

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

// Fingerprint 计算记录的内容指纹（ETag）
// 基于规范化 JSON 序列化（字段顺序固定），同一逻辑记录必得同一摘要
func Fingerprint(p *plan.Plan) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal plan failed: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// CheckPrecondition 条件写检查（If-Match）
// 客户端未提供前置条件时无条件通过；提供且不一致则判定冲突
func CheckPrecondition(clientDigest, currentDigest string) bool {
	if clientDigest == "" {
		return true
	}
	return clientDigest == currentDigest
}

// CheckCached 条件读检查（If-None-Match）
// 一致表示客户端副本未过期，可返回 Not Modified
func CheckCached(clientDigest, currentDigest string) bool {
	return clientDigest != "" && clientDigest == currentDigest
}
