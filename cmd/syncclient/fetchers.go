package main

import (
	"context"

	"github.com/biasdo/syncclient/internal/api"
	"github.com/biasdo/syncclient/internal/bootstrap"
	"github.com/biasdo/syncclient/internal/model"
)

// fetchers builds the bootstrap sources for a selection: the account-wide
// resources always, and the per-server and per-channel ones when selected.
func fetchers(client *api.Client, serverID, channelID, inviteID string, limit int) bootstrap.Fetchers {
	f := bootstrap.Fetchers{
		Me:             client.Me,
		Servers:        client.Servers,
		Friends:        client.Friends,
		FriendRequests: client.FriendRequests,
		Channels: func(ctx context.Context) ([]model.Channel, error) {
			dms, err := client.DirectChannels(ctx)
			if err != nil || serverID == "" {
				return dms, err
			}
			channels, err := client.Channels(ctx, serverID)
			if err != nil {
				return nil, err
			}
			return append(dms, channels...), nil
		},
	}

	if serverID != "" {
		f.Members = func(ctx context.Context) ([]model.Member, error) {
			return client.Members(ctx, serverID)
		}
		f.Invites = func(ctx context.Context) ([]model.Invite, error) {
			return client.Invites(ctx, serverID)
		}
	}

	if channelID != "" {
		f.Messages = func(ctx context.Context) ([]model.Message, error) {
			return client.Messages(ctx, channelID, api.MessagesQuery{Limit: limit})
		}
	}

	if inviteID != "" {
		f.Invite = func(ctx context.Context) (model.Invite, error) {
			return client.Invite(ctx, inviteID)
		}
	}

	return f
}
