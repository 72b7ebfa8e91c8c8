// Package http wires the engine behind a gin router, mirroring the
// teacher's handler/v1 request/response shapes (internal/hivemind/router.go,
// internal/hivemind/handler/v1/agents.go) over spec.md §6's single
// execute_prompt operation instead of the teacher's agent/session CRUD.
package http

// ExecuteRequest is the POST /v1/execute request body, spec.md §6.1.
type ExecuteRequest struct {
	Command       string                 `json:"command"`
	ChainID       string                 `json:"chainId,omitempty"`
	UserResponse  string                 `json:"userResponse,omitempty"`
	GateVerdict   string                 `json:"gateVerdict,omitempty"`
	GateAction    string                 `json:"gateAction,omitempty"`
	Gates         []interface{}          `json:"gates,omitempty"`
	ForceRestart  bool                   `json:"forceRestart,omitempty"`
	Options       map[string]interface{} `json:"options,omitempty"`
	APIValidation *bool                  `json:"apiValidation,omitempty"`
	QualityGates  []string               `json:"qualityGates,omitempty"`
	CustomChecks  []string               `json:"customChecks,omitempty"`
}

// ExecuteResponse is the POST /v1/execute response body, spec.md §6.1.
type ExecuteResponse struct {
	Content      []ResponseContent      `json:"content"`
	IsError      bool                   `json:"isError,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CallToAction string                 `json:"callToAction,omitempty"`
}

// ResponseContent is one element of ExecuteResponse.Content.
type ResponseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// VersionResponse is the GET /version response body.
type VersionResponse struct {
	Version   string         `json:"version"`
	Commit    string         `json:"commit,omitempty"`
	Diagnostics map[string]int `json:"startupDiagnostics,omitempty"`
}
