package request

// ConnectSourceRequest is the body of POST /api/source.
type ConnectSourceRequest struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	APIKey    string `json:"apiKey,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`
	Address   string `json:"address,omitempty"`
}
