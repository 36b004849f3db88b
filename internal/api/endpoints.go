package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/biasdo/syncclient/internal/model"
)

// MessagesQuery pages through a channel's history. Zero values are omitted.
type MessagesQuery struct {
	Limit  int    // 1..100, server default when zero
	LastID string // return messages older than this id
}

func (q MessagesQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.LastID != "" {
		v.Set("last_id", q.LastID)
	}
	return v
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (model.Me, error) {
	var me model.Me
	if err := c.get(ctx, "/v0/users/@me", nil, &me); err != nil {
		return model.Me{}, fmt.Errorf("get me: %w", err)
	}
	return me, nil
}

// Servers returns the servers the user belongs to.
func (c *Client) Servers(ctx context.Context) ([]model.Server, error) {
	var servers []model.Server
	if err := c.get(ctx, "/v0/servers", nil, &servers); err != nil {
		return nil, fmt.Errorf("get servers: %w", err)
	}
	return servers, nil
}

// Members returns the members of a server.
func (c *Client) Members(ctx context.Context, serverID string) ([]model.Member, error) {
	var members []model.Member
	if err := c.get(ctx, "/v0/servers/"+url.PathEscape(serverID)+"/members", nil, &members); err != nil {
		return nil, fmt.Errorf("get members of %s: %w", serverID, err)
	}
	return members, nil
}

// Channels returns the text channels of a server.
func (c *Client) Channels(ctx context.Context, serverID string) ([]model.Channel, error) {
	var channels []model.Channel
	if err := c.get(ctx, "/v0/servers/"+url.PathEscape(serverID)+"/channels", nil, &channels); err != nil {
		return nil, fmt.Errorf("get channels of %s: %w", serverID, err)
	}
	return channels, nil
}

// DirectChannels returns the user's direct-message channels.
func (c *Client) DirectChannels(ctx context.Context) ([]model.Channel, error) {
	var channels []model.Channel
	if err := c.get(ctx, "/v0/direct-channels", nil, &channels); err != nil {
		return nil, fmt.Errorf("get direct channels: %w", err)
	}
	return channels, nil
}

// Messages returns one page of a channel's messages.
func (c *Client) Messages(ctx context.Context, channelID string, q MessagesQuery) ([]model.Message, error) {
	var messages []model.Message
	if err := c.get(ctx, "/v0/channels/"+url.PathEscape(channelID)+"/messages", q.values(), &messages); err != nil {
		return nil, fmt.Errorf("get messages of %s: %w", channelID, err)
	}
	return messages, nil
}

// Invites returns the invites of a server.
func (c *Client) Invites(ctx context.Context, serverID string) ([]model.Invite, error) {
	var invites []model.Invite
	if err := c.get(ctx, "/v0/servers/"+url.PathEscape(serverID)+"/invites", nil, &invites); err != nil {
		return nil, fmt.Errorf("get invites of %s: %w", serverID, err)
	}
	return invites, nil
}

// Invite returns a single invite by id.
func (c *Client) Invite(ctx context.Context, inviteID string) (model.Invite, error) {
	var invite model.Invite
	if err := c.get(ctx, "/v0/invites/"+url.PathEscape(inviteID), nil, &invite); err != nil {
		return model.Invite{}, fmt.Errorf("get invite %s: %w", inviteID, err)
	}
	return invite, nil
}

// User returns a public profile.
func (c *Client) User(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	if err := c.get(ctx, "/v0/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// Friends returns the user's friendships.
func (c *Client) Friends(ctx context.Context) ([]model.Friend, error) {
	var friends []model.Friend
	if err := c.get(ctx, "/v0/friends", nil, &friends); err != nil {
		return nil, fmt.Errorf("get friends: %w", err)
	}
	return friends, nil
}

// FriendRequests returns pending incoming and outgoing friend requests.
func (c *Client) FriendRequests(ctx context.Context) ([]model.FriendRequest, error) {
	var requests []model.FriendRequest
	if err := c.get(ctx, "/v0/friend-requests", nil, &requests); err != nil {
		return nil, fmt.Errorf("get friend requests: %w", err)
	}
	return requests, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp sessionResponse
	if err := c.post(ctx, "/v0/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: empty token in response")
	}
	return resp.Token, nil
}

// Logout revokes the current session on the server.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/v0/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
