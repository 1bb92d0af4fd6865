package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseID 解析路径或表单里的正整数 id
func ParseID(s string) (uint, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	if n == 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

// ParseIDValue 接受 JSON 里的数字或数字字符串，小数与非正数都视为无效
func ParseIDValue(v any) (uint, error) {
	switch val := v.(type) {
	case json.Number:
		return ParseID(val.String())
	case float64:
		if val != math.Trunc(val) || val <= 0 || val > math.MaxUint32 {
			return 0, fmt.Errorf("invalid id %v", val)
		}
		return uint(val), nil
	case string:
		return ParseID(val)
	}
	return 0, fmt.Errorf("invalid id %v", v)
}
