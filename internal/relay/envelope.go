package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Envelope is the parsed inbound request body. target_url selects the
// downstream endpoint; every other top-level field is opaque payload
// that is forwarded verbatim. The relay never reads payload fields by
// name.
type Envelope struct {
	TargetURL *url.URL
	payload   map[string]json.RawMessage
}

var (
	ErrMalformedBody = errors.New("body is not a JSON object")
	ErrMissingTarget = errors.New("target_url is required")
	ErrInvalidTarget = errors.New("target_url must be an absolute http(s) URL")
)

// ParseEnvelope decodes a request body into an Envelope. It fails on
// anything that is not a JSON object carrying a valid target_url, and
// callers must not issue a downstream call when it fails.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	raw, ok := fields["target_url"]
	if !ok {
		return nil, ErrMissingTarget
	}

	var targetStr string
	if err := json.Unmarshal(raw, &targetStr); err != nil {
		return nil, fmt.Errorf("%w: not a string", ErrInvalidTarget)
	}

	target, err := url.Parse(targetStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, ErrInvalidTarget
	}

	delete(fields, "target_url")

	return &Envelope{
		TargetURL: target,
		payload:   fields,
	}, nil
}

// Body serializes the pass-through payload, with target_url stripped.
func (e *Envelope) Body() ([]byte, error) {
	return json.Marshal(e.payload)
}

// PayloadLen returns the number of pass-through fields.
func (e *Envelope) PayloadLen() int {
	return len(e.payload)
}
