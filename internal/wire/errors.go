package wire

import "errors"

// ErrUnknownMessageType is returned by UnmarshalReply when the "type" field
// is neither "result" nor "error".
var ErrUnknownMessageType = errors.New("wire: unknown message type")
