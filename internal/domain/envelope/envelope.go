// Package envelope holds the response envelope shared by every engine endpoint.
package envelope

import "encoding/json"

// Envelope is the `{ok, result, error}` wrapper the engine returns.
// Result stays raw: its shape varies and is reconciled by the adapter.
type Envelope struct {
	OK      bool            `json:"ok"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Upload is the `/upload` response.
type Upload struct {
	OK          bool       `json:"ok"`
	FileName    string     `json:"fileName"`
	TableName   string     `json:"tableName"`
	FileSize    string     `json:"fileSize,omitempty"`
	RecordCount int        `json:"recordCount"`
	Inserted    int        `json:"inserted"`
	Failed      int        `json:"failed"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Health is the `/health` response.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
