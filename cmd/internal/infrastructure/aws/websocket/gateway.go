package websocket

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
)

// HeaderConnectionID carries the API Gateway connection id on the route hooks.
const HeaderConnectionID = "X-Connection-Id"

// ErrGone means API Gateway no longer knows the connection. Callers should forget it.
var ErrGone = errors.New("websocket connection gone")

// Pusher delivers already encoded frames to single connections.
type Pusher interface {
	Push(ctx context.Context, connID string, frame []byte) error
	Close(ctx context.Context, connID string) error
}

type AWSPusher struct {
	client *apigatewaymanagementapi.Client
}

func NewAWSPusher(ctx context.Context, endpoint, region string) (*AWSPusher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &AWSPusher{client: client}, nil
}

func (p *AWSPusher) Push(ctx context.Context, connID string, frame []byte) error {
	_, err := p.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connID),
		Data:         frame,
	})
	return translate(err)
}

func (p *AWSPusher) Close(ctx context.Context, connID string) error {
	_, err := p.client.DeleteConnection(ctx, &apigatewaymanagementapi.DeleteConnectionInput{
		ConnectionId: aws.String(connID),
	})
	return translate(err)
}

func translate(err error) error {
	var gone *types.GoneException
	if errors.As(err, &gone) {
		return ErrGone
	}
	return err
}

// DiscardPusher drops every frame. Used when no websocket endpoint is configured.
type DiscardPusher struct{}

func (DiscardPusher) Push(context.Context, string, []byte) error {
	return nil
}

func (DiscardPusher) Close(context.Context, string) error {
	return nil
}
