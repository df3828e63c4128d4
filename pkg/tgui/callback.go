package tgui

import (
	"strings"
)

// Data formats inline callback data as "area:action:payload".
// Payload is kept as-is (no escaping).
func Data(area, action, payload string) string {
	area = strings.TrimSpace(area)
	action = strings.TrimSpace(action)
	if payload == "" {
		return area + ":" + action
	}
	return area + ":" + action + ":" + payload
}

// Split parses callback data produced by Data.
// The payload part may itself contain ':' and is returned verbatim.
func Split(data string) (area, action, payload string) {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 3)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2]
	case 2:
		return parts[0], parts[1], ""
	case 1:
		return parts[0], "", ""
	default:
		return "", "", ""
	}
}
