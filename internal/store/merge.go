package store

import "github.com/biasdo/syncclient/internal/model"

// The Merge helpers apply one patch together with the denormalized side data
// it carries. Both the live event stream and the bulk fetch go through them,
// so snapshot and stream converge on the same upserts.

// MergeServer upserts a server.
func (s *Stores) MergeServer(p model.ServerPatch, insert bool) {
	s.Servers.Upsert(p, insert)
}

// MergeUser upserts a user.
func (s *Stores) MergeUser(p model.UserPatch, insert bool) {
	s.Users.Upsert(p, insert)
}

// MergeMember upserts a member and, on insert, its embedded user.
func (s *Stores) MergeMember(p model.MemberPatch, insert bool) {
	s.Members.Upsert(p, insert)
	if !insert {
		return
	}
	if u, ok := p.User.Get(); ok {
		s.Users.Upsert(model.UserPatchOf(u), true)
	}
}

// MergeChannel upserts a channel. On insert a DM channel gets its recipient
// pair (local user, other user) and the embedded user is upserted.
func (s *Stores) MergeChannel(p model.ChannelPatch, insert bool) {
	if !insert {
		s.Channels.Upsert(p, false)
		return
	}

	u, hasUser := p.User.Get()
	if kind, _ := p.Kind.Get(); kind == model.ChannelDM {
		meID, _ := s.Identity.ID()
		p.Recipients = model.Set([]string{meID, u.ID})
	} else {
		p.Recipients = model.Null[[]string]()
	}

	s.Channels.Upsert(p, true)
	if hasUser {
		s.Users.Upsert(model.UserPatchOf(u), true)
	}
}

// MergeMessage upserts a message and, on insert, its author and member.
func (s *Stores) MergeMessage(p model.MessagePatch, insert bool) {
	s.Messages.Upsert(p, insert)
	if !insert {
		return
	}
	if u, ok := p.User.Get(); ok {
		s.Users.Upsert(model.UserPatchOf(u), true)
	}
	if m, ok := p.Member.Get(); ok {
		s.Members.Upsert(model.MemberPatchOf(m), true)
	}
}

// MergeInvite upserts an invite. withServer also upserts the embedded server;
// a single fetched invite skips it so the invite page does not redirect into
// a server the user has not joined.
func (s *Stores) MergeInvite(p model.InvitePatch, insert, withServer bool) {
	s.Invites.Upsert(p, insert)
	if !withServer {
		return
	}
	if srv, ok := p.Server.Get(); ok && srv.ID != "" {
		s.Servers.Upsert(model.ServerPatchOf(srv), true)
	}
}

// MergeFriend upserts a friendship keyed by the other party. On insert both
// users and the friendship's DM channel are upserted too.
func (s *Stores) MergeFriend(p model.FriendPatch, insert bool) {
	user, _ := p.User.Get()
	friend, _ := p.Friend.Get()

	if p.ID == "" {
		meID, _ := s.Identity.ID()
		p.ID = model.OtherParty(meID, user.ID, friend.ID)
	}
	s.Friends.Upsert(p, insert)
	if !insert {
		return
	}

	s.mergeUsers(user, friend)

	if ch, ok := p.Channel.Get(); ok {
		cp := model.ChannelPatchOf(ch)
		cp.Recipients = model.Set([]string{user.ID, friend.ID})
		s.Channels.Upsert(cp, true)
	}
}

// MergeFriendRequest upserts a friend request keyed by the other party and,
// on insert, both users.
func (s *Stores) MergeFriendRequest(p model.FriendRequestPatch, insert bool) {
	sender, _ := p.Sender.Get()
	receiver, _ := p.Receiver.Get()

	if p.ID == "" {
		meID, _ := s.Identity.ID()
		p.ID = model.OtherParty(meID, sender.ID, receiver.ID)
	}
	s.FriendRequests.Upsert(p, insert)
	if !insert {
		return
	}

	s.mergeUsers(sender, receiver)
}

// RemoveMember deletes the membership of userID in serverID.
func (s *Stores) RemoveMember(serverID, userID string) {
	s.Members.Remove(model.MemberID(serverID, userID))
}

// RemoveFriend deletes the friendship between a and b.
func (s *Stores) RemoveFriend(a, b string) {
	meID, _ := s.Identity.ID()
	s.Friends.Remove(model.OtherParty(meID, a, b))
}

// RemoveFriendRequest deletes the request between sender and receiver.
func (s *Stores) RemoveFriendRequest(sender, receiver string) {
	meID, _ := s.Identity.ID()
	s.FriendRequests.Remove(model.OtherParty(meID, sender, receiver))
}

func (s *Stores) mergeUsers(users ...model.User) {
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		s.Users.Upsert(model.UserPatchOf(u), true)
	}
}
