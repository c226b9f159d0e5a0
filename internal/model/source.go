package model

import "time"

// ConnectedSource is the persisted record of a connected exchange account.
// Credentials are stored separately and encrypted.
type ConnectedSource struct {
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	ConnectedAt time.Time  `json:"connectedAt"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Configured  bool       `json:"configured,omitempty"` // Defined in configuration, not persisted
	Breaker     string     `json:"breaker,omitempty"`    // Circuit breaker state, set when listed
}

// SyncReport summarizes a multi-exchange sync. One failing exchange never
// aborts the others; its failure is listed next to the successful imports.
type SyncReport struct {
	SyncID   string          `json:"syncId"`
	Imported map[string]int  `json:"imported"`
	Synced   []string        `json:"synced"`
	Failures []SourceFailure `json:"failures"`
	SyncedAt time.Time       `json:"syncedAt"`
}

// Credentials are the secrets needed to read one exchange account.
// Which fields are required depends on the exchange kind.
type Credentials struct {
	APIKey    string `json:"apiKey,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`
	Address   string `json:"address,omitempty"`
}
