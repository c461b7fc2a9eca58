package problem

import "errors"

// Limits keep an encoded instance within one exec argument. Linux caps a
// single argument at 128 KiB (MAX_ARG_STRLEN); MaxWireBytes leaves headroom.
// MaxVariables dense variables over MaxLayers layers encode below it.
const (
	MaxVariables = 32
	MaxLayers    = 4
	MaxWireBytes = 120 << 10
)

var (
	ErrTooLarge          = errors.New("problem too large for the backend")
	ErrNonFinite         = errors.New("problem weight is not finite")
	ErrDimensionMismatch = errors.New("constraint matrix does not match resource vector")
	ErrEmptyProblem      = errors.New("problem has no variables")
	ErrInvalidKeyLength  = errors.New("key length must be positive")
	ErrUnknownKind       = errors.New("unknown problem kind")
)

// Kind identifies the operation a backend is asked to perform
type Kind string

const (
	KindSearch        Kind = "search"
	KindKeyGeneration Kind = "key_generation"
	KindAllocation    Kind = "allocation"
)

// Instance is the wire representation of one optimization request.
// Exactly one payload matching Kind is set.
type Instance struct {
	Kind          Kind                  `json:"kind"`
	Search        *SearchPayload        `json:"search,omitempty"`
	KeyGeneration *KeyGenerationPayload `json:"key_generation,omitempty"`
	Allocation    *AllocationPayload    `json:"allocation,omitempty"`
}

// SearchPayload asks the backend to locate Target in Database
type SearchPayload struct {
	Database []string `json:"database"`
	Target   string   `json:"target"`
}

// KeyGenerationPayload asks for a random bit-string of Bits length
type KeyGenerationPayload struct {
	Bits int `json:"bits"`
}

// AllocationPayload is a layered binary-allocation problem
type AllocationPayload struct {
	Variables int     `json:"variables"`
	Shots     int     `json:"shots"`
	Layers    []Layer `json:"layers"`
}

// Layer is one cost pass followed by one uniform mixer pass
type Layer struct {
	Gamma     float64    `json:"gamma"`
	Beta      float64    `json:"beta"`
	Linear    []Linear   `json:"linear"`
	Couplings []Coupling `json:"couplings"`
}

// Linear is a single-variable weight term
type Linear struct {
	Index  int     `json:"i"`
	Weight float64 `json:"w"`
}

// Coupling is a pairwise weight term between variables I < J
type Coupling struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Weight float64 `json:"w"`
}

// Size returns the number of decision variables the instance carries
func (in *Instance) Size() int {
	switch in.Kind {
	case KindAllocation:
		if in.Allocation != nil {
			return in.Allocation.Variables
		}
	case KindKeyGeneration:
		if in.KeyGeneration != nil {
			return in.KeyGeneration.Bits
		}
	}
	return 0
}

// Validate checks that the payload matches the declared kind
func (in *Instance) Validate() error {
	switch in.Kind {
	case KindSearch:
		if in.Search == nil {
			return errors.New("search payload missing")
		}
	case KindKeyGeneration:
		if in.KeyGeneration == nil {
			return errors.New("key generation payload missing")
		}
		if in.KeyGeneration.Bits <= 0 {
			return ErrInvalidKeyLength
		}
	case KindAllocation:
		if in.Allocation == nil {
			return errors.New("allocation payload missing")
		}
		if in.Allocation.Variables <= 0 {
			return ErrEmptyProblem
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// Output is what a backend writes to stdout. Which fields are populated
// depends on the instance kind.
type Output struct {
	UsedPrimaryBackend bool `json:"usedPrimaryBackend"`

	// search
	Result     *string  `json:"result,omitempty"`
	Found      *bool    `json:"found,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`

	// key generation
	Key *string `json:"key,omitempty"`

	// allocation: either a frequency map or a single outcome
	Counts     map[string]int `json:"counts,omitempty"`
	Allocation *string        `json:"allocation,omitempty"`
	Energy     *float64       `json:"energy,omitempty"`

	Error string `json:"error,omitempty"`
}
