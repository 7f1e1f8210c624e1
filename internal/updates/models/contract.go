package models

import "time"

const (
	// ContractName identifies this registry in persisted contract info.
	ContractName = "crates.io:secure-update"
	// ContractVersion is recorded at instantiation.
	ContractVersion = "0.1.0"
)

// ContractState is the persisted state captured at instantiation.
type ContractState struct {
	Admin          string    `json:"admin"`
	Contract       string    `json:"contract"`
	Version        string    `json:"version"`
	InstantiatedAt time.Time `json:"instantiated_at"`
}

// Attribute is a key/value pair acknowledging a contract call.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the acknowledgment returned by Instantiate and Execute.
type Response struct {
	Attributes []Attribute `json:"attributes"`
}

// AddAttribute appends an attribute and returns the response for chaining.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the value stored under key, or "" if absent.
func (r *Response) Attribute(key string) string {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
