package quantum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

func TestDecodeCounts(t *testing.T) {
	tests := []struct {
		name    string
		counts  map[string]int
		n       int
		want    []int
		wantErr error
	}{
		{
			name:   "highest frequency wins",
			counts: map[string]int{"101": 5, "110": 9, "011": 2},
			n:      3,
			want:   []int{1, 1, 0},
		},
		{
			name:   "tie goes to smallest bit-string",
			counts: map[string]int{"110": 4, "011": 4, "100": 1},
			n:      3,
			want:   []int{0, 1, 1},
		},
		{
			name:    "winner too short",
			counts:  map[string]int{"10": 7, "101": 1},
			n:       3,
			wantErr: ErrSizeMismatch,
		},
		{
			name:    "empty counts",
			counts:  map[string]int{},
			n:       3,
			wantErr: ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCounts(tt.counts, tt.n)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBitString(t *testing.T) {
	got, err := DecodeBitString("0110", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 0}, got)

	_, err = DecodeBitString("01", 3)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.False(t, f.Recoverable())

	_, err = DecodeBitString("0x1", 3)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDecodeInts(t *testing.T) {
	got, err := DecodeInts([]int{1, 0, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, got)

	_, err = DecodeInts([]int{1, 2, 0}, 3)
	assert.ErrorIs(t, err, ErrProtocol)

	_, err = DecodeInts([]int{1, 0}, 3)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeReply(t *testing.T) {
	alloc, err := problem.EncodeAllocation([]float64{0.1, 0.9, 0.5}, nil, problem.DefaultSchedule(), 8)
	require.NoError(t, err)
	key, err := problem.EncodeKeyGeneration(4)
	require.NoError(t, err)
	search := problem.EncodeSearch([]string{"a", "b"}, "b")

	tests := []struct {
		name    string
		in      *problem.Instance
		raw     string
		wantErr error
		check   func(t *testing.T, res *BackendResult)
	}{
		{
			name: "allocation bit-string",
			in:   alloc,
			raw:  `{"usedPrimaryBackend":false,"allocation":"010"}` + "\n",
			check: func(t *testing.T, res *BackendResult) {
				assert.Equal(t, []int{0, 1, 0}, res.Allocation)
				assert.False(t, res.UsedPrimaryBackend)
			},
		},
		{
			name: "allocation counts",
			in:   alloc,
			raw:  `{"usedPrimaryBackend":true,"counts":{"011":3,"111":5},"energy":-0.2}`,
			check: func(t *testing.T, res *BackendResult) {
				assert.Equal(t, []int{1, 1, 1}, res.Allocation)
				assert.True(t, res.UsedPrimaryBackend)
				require.NotNil(t, res.Energy)
				assert.InDelta(t, -0.2, *res.Energy, 1e-9)
			},
		},
		{
			name: "allocation integers",
			in:   alloc,
			raw:  `{"usedPrimaryBackend":true,"allocation":[1,0,1]}`,
			check: func(t *testing.T, res *BackendResult) {
				assert.Equal(t, []int{1, 0, 1}, res.Allocation)
			},
		},
		{
			name:    "allocation integers out of range",
			in:      alloc,
			raw:     `{"usedPrimaryBackend":true,"allocation":[1,3,1]}`,
			wantErr: ErrProtocol,
		},
		{
			name:    "allocation missing",
			in:      alloc,
			raw:     `{"usedPrimaryBackend":true}`,
			wantErr: ErrProtocol,
		},
		{
			name:    "allocation wrong length",
			in:      alloc,
			raw:     `{"usedPrimaryBackend":true,"allocation":"01"}`,
			wantErr: ErrSizeMismatch,
		},
		{
			name:    "error field",
			in:      alloc,
			raw:     `{"usedPrimaryBackend":false,"error":"device offline"}`,
			wantErr: ErrProtocol,
		},
		{
			name:    "missing usedPrimaryBackend",
			in:      alloc,
			raw:     `{"allocation":"010"}`,
			wantErr: ErrProtocol,
		},
		{
			name:    "not json",
			in:      alloc,
			raw:     `Traceback (most recent call last):`,
			wantErr: ErrProtocol,
		},
		{
			name:    "empty",
			in:      alloc,
			raw:     "  \n",
			wantErr: ErrProtocol,
		},
		{
			name: "key",
			in:   key,
			raw:  `{"usedPrimaryBackend":true,"key":"1001"}`,
			check: func(t *testing.T, res *BackendResult) {
				assert.Equal(t, "1001", res.Key)
			},
		},
		{
			name:    "key wrong length",
			in:      key,
			raw:     `{"usedPrimaryBackend":true,"key":"10011"}`,
			wantErr: ErrSizeMismatch,
		},
		{
			name: "search hit",
			in:   search,
			raw:  `{"usedPrimaryBackend":true,"result":"b","found":true,"confidence":0.9}`,
			check: func(t *testing.T, res *BackendResult) {
				assert.Equal(t, "b", res.Result)
				assert.True(t, res.Found)
				assert.InDelta(t, 0.9, res.Confidence, 1e-9)
			},
		},
		{
			name: "search result without found flag",
			in:   search,
			raw:  `{"usedPrimaryBackend":false,"result":"b"}`,
			check: func(t *testing.T, res *BackendResult) {
				assert.True(t, res.Found)
			},
		},
		{
			name:    "search without payload",
			in:      search,
			raw:     `{"usedPrimaryBackend":false}`,
			wantErr: ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeReply(tt.in, []byte(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestFailureClassification(t *testing.T) {
	tests := []struct {
		kind        FailureKind
		sentinel    error
		recoverable bool
	}{
		{BackendError, ErrBackend, true},
		{ProtocolError, ErrProtocol, true},
		{SizeMismatch, ErrSizeMismatch, false},
		{Exhausted, ErrExhausted, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			f := &Failure{Kind: tt.kind, Message: "x"}
			assert.ErrorIs(t, f, tt.sentinel)
			assert.Equal(t, tt.recoverable, f.Recoverable())
			assert.Equal(t, tt.recoverable, recoverable(f))
		})
	}
}
