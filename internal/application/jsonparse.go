package app

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject декодирует в out фрагмент text от первой "{" до последней "}".
// Возвращает false, если фрагмента нет или он не является корректным JSON.
func ExtractJSONObject(text string, out interface{}) bool {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(text[start:end+1]), out) == nil
}

// truncateRunes обрезает строку до n символов, не разрывая UTF-8.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
