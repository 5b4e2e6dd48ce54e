package broker

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ayusman/mudra/internal/gesture"
)

// Subscription registers a named pattern on behalf of a subscriber process.
type Subscription struct {
	SubscriberID int
	Name         string
	Pattern      gesture.String
}

// Detection tells a subscriber which of its gestures was recognized.
type Detection struct {
	Name string
}

// Marshal encodes the subscription as three netstring fields.
func (s Subscription) Marshal() []byte {
	return encodeFields(strconv.Itoa(s.SubscriberID), s.Name, string(s.Pattern))
}

// UnmarshalSubscription decodes a registration payload.
func UnmarshalSubscription(data []byte) (Subscription, error) {
	fields, err := decodeFields(data)
	if err != nil {
		return Subscription{}, err
	}
	if len(fields) != 3 {
		return Subscription{}, fmt.Errorf("%w: subscription has %d fields", ErrMalformedMessage, len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: subscriber id %q", ErrMalformedMessage, fields[0])
	}
	if fields[1] == "" {
		return Subscription{}, fmt.Errorf("%w: empty gesture name", ErrMalformedMessage)
	}
	return Subscription{SubscriberID: id, Name: fields[1], Pattern: gesture.String(fields[2])}, nil
}

// Marshal encodes the detection as a single netstring field.
func (d Detection) Marshal() []byte {
	return encodeFields(d.Name)
}

// UnmarshalDetection decodes a notification payload.
func UnmarshalDetection(data []byte) (Detection, error) {
	fields, err := decodeFields(data)
	if err != nil {
		return Detection{}, err
	}
	if len(fields) != 1 {
		return Detection{}, fmt.Errorf("%w: detection has %d fields", ErrMalformedMessage, len(fields))
	}
	return Detection{Name: fields[0]}, nil
}

// encodeFields writes each field as <len>:<bytes>,
func encodeFields(fields ...string) []byte {
	var buf bytes.Buffer
	for _, f := range fields {
		buf.WriteString(strconv.Itoa(len(f)))
		buf.WriteByte(':')
		buf.WriteString(f)
		buf.WriteByte(',')
	}
	return buf.Bytes()
}

func decodeFields(data []byte) ([]string, error) {
	var fields []string
	for len(data) > 0 {
		colon := bytes.IndexByte(data, ':')
		if colon <= 0 {
			return nil, fmt.Errorf("%w: missing length prefix", ErrMalformedMessage)
		}
		n, err := strconv.Atoi(string(data[:colon]))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad length %q", ErrMalformedMessage, data[:colon])
		}
		rest := data[colon+1:]
		if len(rest) < n+1 || rest[n] != ',' {
			return nil, fmt.Errorf("%w: truncated field", ErrMalformedMessage)
		}
		fields = append(fields, string(rest[:n]))
		data = rest[n+1:]
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedMessage)
	}
	return fields, nil
}
