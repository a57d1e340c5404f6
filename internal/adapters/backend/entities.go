package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cvboard/admin/internal/adapters/graphql"
)

// Executor runs an operation with whatever credentials the current session holds.
type Executor interface {
	Execute(ctx context.Context, req graphql.Request) (*graphql.Response, error)
}

// UserByID fetches the full user record. The id must already be validated.
func UserByID(ctx context.Context, exec Executor, id int32) (json.RawMessage, error) {
	return fetch(ctx, exec, graphql.Request{
		OperationName: OpUser,
		Query:         userQuery,
		Variables:     map[string]any{"userId": id},
	}, "user")
}

// CvByID fetches a CV with its owner. The id must already be validated.
func CvByID(ctx context.Context, exec Executor, id int32) (json.RawMessage, error) {
	return fetch(ctx, exec, graphql.Request{
		OperationName: OpCv,
		Query:         cvQuery,
		Variables:     map[string]any{"cvId": id},
	}, "cv")
}

func fetch(ctx context.Context, exec Executor, req graphql.Request, field string) (json.RawMessage, error) {
	resp, err := exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := resp.Decode(field, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", req.OperationName, err)
	}
	return out, nil
}
