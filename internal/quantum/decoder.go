package quantum

import (
	"bytes"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

// BackendResult is the decoded answer of one backend invocation
type BackendResult struct {
	Variant            resilience.Variant `json:"-"`
	UsedPrimaryBackend bool               `json:"usedPrimaryBackend"`

	Allocation []int    `json:"allocation,omitempty"`
	Energy     *float64 `json:"energy,omitempty"`

	Result     string  `json:"result,omitempty"`
	Found      bool    `json:"found,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	Key string `json:"key,omitempty"`

	Raw []byte `json:"-"`
}

// reply mirrors problem.Output but keeps every field optional so that
// missing payloads can be told apart from zero values.
type reply struct {
	UsedPrimaryBackend *bool          `json:"usedPrimaryBackend"`
	Result             *string        `json:"result"`
	Found              *bool          `json:"found"`
	Confidence         *float64       `json:"confidence"`
	Key                *string        `json:"key"`
	Counts             map[string]int `json:"counts"`
	Allocation         interface{}    `json:"allocation"`
	Energy             *float64       `json:"energy"`
	Error              string         `json:"error"`
}

// DecodeReply parses captured backend stdout against the instance it answers
func DecodeReply(in *problem.Instance, raw []byte) (*BackendResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, protocolFailure("empty backend output")
	}

	var r reply
	if err := sonic.ConfigStd.Unmarshal(raw, &r); err != nil {
		f := protocolFailure("unparseable backend output")
		f.Err = err
		return nil, f
	}
	if r.Error != "" {
		return nil, protocolFailure("backend reported error: %s", r.Error)
	}
	if r.UsedPrimaryBackend == nil {
		return nil, protocolFailure("backend output lacks usedPrimaryBackend")
	}

	res := &BackendResult{UsedPrimaryBackend: *r.UsedPrimaryBackend, Raw: raw}

	switch in.Kind {
	case problem.KindSearch:
		if r.Found == nil && r.Result == nil {
			return nil, protocolFailure("search output lacks result")
		}
		if r.Result != nil {
			res.Result = *r.Result
		}
		res.Found = r.Result != nil
		if r.Found != nil {
			res.Found = *r.Found
		}
		if r.Confidence != nil {
			res.Confidence = *r.Confidence
		}

	case problem.KindKeyGeneration:
		if r.Key == nil {
			return nil, protocolFailure("key generation output lacks key")
		}
		if _, err := DecodeBitString(*r.Key, in.Size()); err != nil {
			return nil, err
		}
		res.Key = *r.Key

	case problem.KindAllocation:
		alloc, err := decodeAllocation(&r, in.Size())
		if err != nil {
			return nil, err
		}
		res.Allocation = alloc
		res.Energy = r.Energy

	default:
		return nil, problem.ErrUnknownKind
	}

	return res, nil
}

func decodeAllocation(r *reply, n int) ([]int, error) {
	switch v := r.Allocation.(type) {
	case string:
		return DecodeBitString(v, n)
	case []interface{}:
		ints := make([]int, len(v))
		for i, x := range v {
			f, ok := x.(float64)
			if !ok || (f != 0 && f != 1) {
				return nil, protocolFailure("allocation entry %d is not 0 or 1", i)
			}
			ints[i] = int(f)
		}
		return DecodeInts(ints, n)
	case nil:
		if len(r.Counts) > 0 {
			return DecodeCounts(r.Counts, n)
		}
		return nil, protocolFailure("allocation output lacks allocation and counts")
	default:
		return nil, protocolFailure("allocation has unexpected type %T", v)
	}
}

// DecodeCounts picks the outcome with the strictly highest frequency and
// decodes it. Ties go to the lexicographically smallest bit-string.
func DecodeCounts(counts map[string]int, n int) ([]int, error) {
	if len(counts) == 0 {
		return nil, protocolFailure("empty counts")
	}

	outcomes := make([]string, 0, len(counts))
	for k := range counts {
		outcomes = append(outcomes, k)
	}
	sort.Strings(outcomes)

	best := outcomes[0]
	for _, k := range outcomes[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return DecodeBitString(best, n)
}

// DecodeBitString maps character i of s to variable i
func DecodeBitString(s string, n int) ([]int, error) {
	out := make([]int, 0, len(s))
	for i, c := range s {
		switch c {
		case '0':
			out = append(out, 0)
		case '1':
			out = append(out, 1)
		default:
			return nil, protocolFailure("non-binary character %q at position %d", c, i)
		}
	}
	if len(out) != n {
		return nil, sizeMismatch(len(out), n)
	}
	return out, nil
}

// DecodeInts accepts an integer allocation whose entries are all 0 or 1
func DecodeInts(values []int, n int) ([]int, error) {
	for i, v := range values {
		if v != 0 && v != 1 {
			return nil, protocolFailure("allocation entry %d is %d", i, v)
		}
	}
	if len(values) != n {
		return nil, sizeMismatch(len(values), n)
	}
	return append([]int(nil), values...), nil
}
