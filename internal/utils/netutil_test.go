package utils

import (
	"net"
	"testing"
)

func TestIsPortListening(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	port := l.Addr().(*net.TCPAddr).Port
	if !IsPortListening(port) {
		t.Errorf("port %d has a listener and must report listening", port)
	}

	l.Close()
	if IsPortListening(port) {
		t.Errorf("closed port %d must not report listening", port)
	}
}
