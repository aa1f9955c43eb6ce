package http

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// headRequest is the JSON body of a head announcement.
type headRequest struct {
	Step      string `json:"step"`
	Timestamp string `json:"timestamp"`
	Root      string `json:"root"`
	Address   string `json:"address"`
}

// parseU256 accepts a u256 as decimal or 0x-prefixed hex.
func parseU256(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}
