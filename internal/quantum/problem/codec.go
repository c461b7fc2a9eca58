package problem

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// wire uses the std-compatible sonic config so map keys are sorted and
// repeated encodings of the same instance are byte-identical.
var wire = sonic.ConfigStd

// Marshal serializes an instance to its single-argument JSON form.
// Encodings longer than MaxWireBytes fail with ErrTooLarge.
func Marshal(in *Instance) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	data, err := wire.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode problem: %w", err)
	}
	if len(data) > MaxWireBytes {
		return nil, fmt.Errorf("%w: %d bytes encoded, limit %d", ErrTooLarge, len(data), MaxWireBytes)
	}
	return data, nil
}

// Unmarshal parses an instance received by a backend
func Unmarshal(data []byte) (*Instance, error) {
	var in Instance
	if err := wire.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to decode problem: %w", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// MarshalOutput serializes a backend result
func MarshalOutput(out *Output) ([]byte, error) {
	return wire.Marshal(out)
}

// UnmarshalOutput parses a backend's captured stdout
func UnmarshalOutput(data []byte) (*Output, error) {
	var out Output
	if err := wire.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
