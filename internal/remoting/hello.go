// Package remoting implements the request-reply and streaming RPC layer
// that runs over one muxdriver stream: a versioned hello pins a function id
// for the life of the stream, then a tagged packet envelope carries
// continuation/completion/error frames. Grounded on
// original_source/modules/omnikit/src/service/remoting/{hello_message,
// packet_message,caller,listener,stream,error}.rs.
package remoting

import "github.com/omnius-labs/omnikit-go/internal/rocketpack"

// protocolVersion is the only hello version this package speaks.
const protocolVersion = "v1"

// HelloMessage is the first frame on every remoting stream: it pins the
// function id the rest of the stream's packets are routed to.
type HelloMessage struct {
	Version    string
	FunctionID uint32
}

func (h *HelloMessage) Pack(e *rocketpack.Encoder) error {
	if err := e.WriteMap(2); err != nil {
		return err
	}
	if err := e.WriteTaggedField(0, func(e *rocketpack.Encoder) error { return e.WriteString(h.Version) }); err != nil {
		return err
	}
	return e.WriteTaggedField(1, func(e *rocketpack.Encoder) error { return e.WriteU32(h.FunctionID) })
}

func (h *HelloMessage) Unpack(d *rocketpack.Decoder) error {
	return d.ReadTaggedMap(func(tag uint64) error {
		switch tag {
		case 0:
			v, err := d.ReadString(32)
			if err != nil {
				return err
			}
			h.Version = v
		case 1:
			v, err := d.ReadU32()
			if err != nil {
				return err
			}
			h.FunctionID = v
		default:
			return d.SkipField()
		}
		return nil
	})
}
