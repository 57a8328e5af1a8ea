package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePort validates a port string and returns its numeric value.
// Accepts decimal ports in the range 1-65535.
func ParsePort(portStr string) (int, error) {
	portStr = strings.TrimSpace(portStr)
	if portStr == "" {
		return 0, fmt.Errorf("empty port")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range (1-65535): %d", port)
	}

	return port, nil
}
