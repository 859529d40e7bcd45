package api

// EstimateRequest is the body of POST /api/v1/mi
type EstimateRequest struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Method string    `json:"method,omitempty"`
	NBins  int       `json:"nbins,omitempty"` // bspline only
	Order  int       `json:"order,omitempty"` // bspline only
}

// EstimateResponse is a successful estimate
type EstimateResponse struct {
	ID       string   `json:"id"`
	Method   string   `json:"method"`
	MI       float64  `json:"mi"`
	EntropyX *float64 `json:"entropy_x,omitempty"`
	EntropyY *float64 `json:"entropy_y,omitempty"`
	N        int      `json:"n"`
}

// ErrorResponse carries the AppError code alongside the message
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// EstimatorsResponse lists the registered estimator names
type EstimatorsResponse struct {
	Default    string   `json:"default"`
	Estimators []string `json:"estimators"`
}
