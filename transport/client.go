package transport

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"chat-relay/dispatch"
)

// Send performs one request/reply exchange: dial, write the token, the
// operation code and the arguments as newline-separated fields, half-close,
// read the reply. Used by the smoke client and the tests.
func Send(addr, token string, code dispatch.Request, args ...string) (dispatch.Result, []string, error) {
	conn, err := net.DialTimeout("tcp", addr, ioTimeout)
	if err != nil {
		return 0, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	fields := append([]string{token, strconv.Itoa(int(code))}, args...)
	if _, err := io.WriteString(conn, strings.Join(fields, FieldDelimiter)); err != nil {
		return 0, nil, fmt.Errorf("write request: %w", err)
	}
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return 0, nil, fmt.Errorf("not a TCP connection")
	}
	if err := tcp.CloseWrite(); err != nil {
		return 0, nil, fmt.Errorf("close write: %w", err)
	}

	payload, err := io.ReadAll(conn)
	if err != nil {
		return 0, nil, fmt.Errorf("read reply: %w", err)
	}
	parts := strings.Split(string(payload), FieldDelimiter)
	resultCode, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, nil, fmt.Errorf("malformed reply %q", string(payload))
	}
	return dispatch.Result(resultCode), parts[1:], nil
}
