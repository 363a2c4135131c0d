package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/universal-tool-calling-protocol/go-utcp"
)

// UTCPCaller serves tool names the local catalog does not know through UTCP providers.
type UTCPCaller struct {
	Client utcp.UtcpClientInterface
}

// NewUTCPCaller loads the providers listed in providersFile.
func NewUTCPCaller(ctx context.Context, providersFile string) (*UTCPCaller, error) {
	providersFile = strings.TrimSpace(providersFile)
	if providersFile == "" {
		return nil, errors.New("utcp providers file is required")
	}
	client, err := utcp.NewUTCPClient(ctx, &utcp.UtcpClientConfig{ProvidersFilePath: providersFile}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("utcp client: %w", err)
	}
	return &UTCPCaller{Client: client}, nil
}

func (u *UTCPCaller) CallTool(ctx context.Context, toolName string, args map[string]any) (any, error) {
	if u == nil || u.Client == nil {
		return nil, errors.New("utcp client is not configured")
	}
	return u.Client.CallTool(ctx, toolName, args)
}

var _ agent.RemoteCaller = (*UTCPCaller)(nil)
