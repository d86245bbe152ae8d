package notify

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reka-labs/salesbot/pkg/completion"
)

type mockCompletionClient struct {
	mock.Mock
}

func (m *mockCompletionClient) Complete(ctx context.Context, req completion.Request) (*completion.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*completion.Response), args.Error(1)
}

func textResponse(text string) *completion.Response {
	return &completion.Response{
		Content: []completion.ContentBlock{{Type: "text", Text: text}},
	}
}
