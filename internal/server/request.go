package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
)

// GraphQLRequest is one operation in the GraphQL over HTTP format.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// badRequest is a request rejected before execution.
type badRequest struct {
	status  int
	message string
}

func (e *badRequest) Error() string { return e.message }

func rejected(message string) *badRequest {
	return &badRequest{status: http.StatusBadRequest, message: message}
}

var errBodyTooLarge = &badRequest{status: http.StatusRequestEntityTooLarge, message: "body too large"}

// readRequests decodes the operations carried by r. A JSON array body is a
// batch; everything else yields exactly one request.
func readRequests(r *http.Request, maxBody int64) ([]GraphQLRequest, bool, error) {
	if r.Method == http.MethodGet {
		req, err := fromQueryString(r)
		return []GraphQLRequest{req}, false, err
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return nil, false, rejected("unsupported Content-Type")
		}
	}
	body, err := readBody(r, maxBody)
	if err != nil {
		return nil, false, err
	}

	if len(body) > 0 && body[0] == '[' {
		var batch []GraphQLRequest
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, true, rejected("invalid JSON")
		}
		if len(batch) == 0 {
			return nil, true, rejected("empty batch")
		}
		return batch, true, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, rejected("invalid JSON")
	}
	if req.Query == "" {
		return nil, false, rejected("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return []GraphQLRequest{req}, false, nil
}

func fromQueryString(r *http.Request) (GraphQLRequest, error) {
	params := r.URL.Query()
	req := GraphQLRequest{
		Query:         params.Get("query"),
		OperationName: params.Get("operationName"),
		Variables:     map[string]any{},
	}
	if req.Query == "" {
		return req, rejected("missing 'query'")
	}
	if v := params.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return req, rejected("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, error) {
	defer r.Body.Close()
	var src io.Reader = r.Body
	if maxBody > 0 {
		src = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(src)
	switch {
	case err != nil:
		return nil, rejected("failed to read body")
	case maxBody > 0 && int64(len(body)) > maxBody:
		return nil, errBodyTooLarge
	}
	return body, nil
}

func statusOf(err error) int {
	var br *badRequest
	if errors.As(err, &br) {
		return br.status
	}
	return http.StatusBadRequest
}
