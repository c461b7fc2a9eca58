package types

// ExecuteRequest invokes a service tool
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// DiscoverRequest finds services relevant to a free-text query
type DiscoverRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// OptimizeRequest asks for a binary allocation
type OptimizeRequest struct {
	Resources   []float64   `json:"resources" binding:"required"`
	Constraints [][]float64 `json:"constraints"`
}

// SearchRequest looks a target up in a database
type SearchRequest struct {
	Database []string `json:"database" binding:"required"`
	Target   string   `json:"target" binding:"required"`
}

// KeyRequest asks for a random bit-string key
type KeyRequest struct {
	Bits int `json:"bits" binding:"required"`
}
