package main

import (
	"io"

	"github.com/omnius-labs/omnikit-go/internal/remoting"
)

// callEcho makes one remoting call on stream and returns the reply payload.
func callEcho(stream io.ReadWriter, functionID uint32, payload []byte) ([]byte, error) {
	return remoting.Call(stream, functionID, payload)
}
