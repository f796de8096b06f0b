package sqlbase

import (
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsNetworkError reports whether the error originates from the network
// path between the process and the store rather than from statement
// execution. Adapters classify such errors as ErrUnavailable.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
