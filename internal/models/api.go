package models

// API error envelope shared by every handler.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ImportItemsRequest is the JSON import body: {"items":[{...}, ...]}.
type ImportItemsRequest struct {
	Items []map[string]interface{} `json:"items"`
}
