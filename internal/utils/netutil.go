package utils

import (
	"fmt"
	"net"
	"time"
)

// IsPortListening reports whether something accepts TCP connections on
// the local port. Used to warn when a tunnel is started before the game
// server is up.
func IsPortListening(port int) bool {
	timeout := time.Second
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
