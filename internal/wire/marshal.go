package wire

import "encoding/json"

// MarshalSubmission encodes a Submission in the submission wire format.
func MarshalSubmission(s Submission) ([]byte, error) {
	s.Type = TypeExecute
	return json.Marshal(s)
}

// MarshalSharedSubmission is MarshalSubmission's shared-channel-capable
// sibling; it differs only in the type tag, distinguishing the capability
// by entry point rather than by substring inspection of the body.
func MarshalSharedSubmission(s Submission) ([]byte, error) {
	s.Type = TypeExecuteShared
	return json.Marshal(s)
}

// UnmarshalSubmission decodes a Submission.
func UnmarshalSubmission(data []byte) (Submission, error) {
	var s Submission
	err := json.Unmarshal(data, &s)
	return s, err
}

// MarshalRegistration encodes a channel registration announcement.
func MarshalRegistration(r Registration) ([]byte, error) {
	r.Type = TypeRegisterChan
	return json.Marshal(r)
}

// UnmarshalRegistration decodes a channel registration announcement.
func UnmarshalRegistration(data []byte) (Registration, error) {
	var r Registration
	err := json.Unmarshal(data, &r)
	return r, err
}

// MarshalResult encodes a successful task reply. value must already be
// JSON-encodable; it is marshaled into the Payload field.
func MarshalResult(id string, value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Result{ID: id, Type: TypeResult, Payload: payload})
}

// MarshalError encodes a failed task reply.
func MarshalError(id string, errMsg string, stack string) ([]byte, error) {
	return json.Marshal(ErrorMsg{ID: id, Type: TypeError, Error: errMsg, Stack: stack})
}

// UnmarshalReply decodes either a Result or an ErrorMsg, discriminated by
// the "type" field, and returns whichever one matched.
func UnmarshalReply(data []byte) (result *Result, errMsg *ErrorMsg, err error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err = json.Unmarshal(data, &probe); err != nil {
		return nil, nil, err
	}
	switch probe.Type {
	case TypeResult:
		var r Result
		if err = json.Unmarshal(data, &r); err != nil {
			return nil, nil, err
		}
		return &r, nil, nil
	case TypeError:
		var e ErrorMsg
		if err = json.Unmarshal(data, &e); err != nil {
			return nil, nil, err
		}
		return nil, &e, nil
	default:
		return nil, nil, ErrUnknownMessageType
	}
}
