package common

import (
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// MergeUnique 依出現順序合併字串切片並去重（精確比對，不做正規化）
func MergeUnique(lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			merged = append(merged, s)
		}
	}
	return merged
}

// Toggle 多選標籤切換：存在則移除，不存在則加入
func Toggle(list []string, tag string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, s := range list {
		if s == tag {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, tag)
	}
	return out
}
