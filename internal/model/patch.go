package model

import "time"

// Each patch type lists the mutable fields of one entity kind. For every
// patch pair, applying p then q equals applying p.Merge(q).

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// ServerPatch is a partial Server.
type ServerPatch struct {
	ID      string        `json:"id"`
	Name    Field[string] `json:"name,omitzero"`
	OwnerID Field[string] `json:"owner_id,omitzero"`
}

// ServerPatchOf returns a patch that sets every field of s.
func ServerPatchOf(s Server) ServerPatch {
	return ServerPatch{ID: s.ID, Name: Set(s.Name), OwnerID: Set(s.OwnerID)}
}

// Key returns the collection key.
func (p ServerPatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing Server. Null clears.
func (p ServerPatch) Apply(s *Server) {
	assign(&s.Name, p.Name)
	assign(&s.OwnerID, p.OwnerID)
}

// Full builds a new Server from p, or fails with ErrShapeMismatch if the key is missing.
func (p ServerPatch) Full() (Server, error) {
	if p.ID == "" {
		return Server{}, ErrShapeMismatch
	}
	s := Server{ID: p.ID}
	p.Apply(&s)
	return s, nil
}

// Merge composes p and q. Fields present in q win.
func (p ServerPatch) Merge(q ServerPatch) ServerPatch {
	return ServerPatch{
		ID:      firstNonEmpty(p.ID, q.ID),
		Name:    q.Name.Or(p.Name),
		OwnerID: q.OwnerID.Or(p.OwnerID),
	}
}

// -----------------------------------------------------------------------------
// User
// -----------------------------------------------------------------------------

// UserPatch is a partial User.
type UserPatch struct {
	ID          string        `json:"id"`
	Username    Field[string] `json:"username,omitzero"`
	DisplayName Field[string] `json:"display_name,omitzero"`
}

// UserPatchOf returns a patch that sets every field of u.
func UserPatchOf(u User) UserPatch {
	return UserPatch{ID: u.ID, Username: Set(u.Username), DisplayName: FromPtr(u.DisplayName)}
}

// Key returns the collection key.
func (p UserPatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing User. Null clears.
func (p UserPatch) Apply(u *User) {
	assign(&u.Username, p.Username)
	assignPtr(&u.DisplayName, p.DisplayName)
}

// Full builds a new User from p, or fails with ErrShapeMismatch if the key is missing.
func (p UserPatch) Full() (User, error) {
	if p.ID == "" {
		return User{}, ErrShapeMismatch
	}
	u := User{ID: p.ID}
	p.Apply(&u)
	return u, nil
}

// Merge composes p and q. Fields present in q win.
func (p UserPatch) Merge(q UserPatch) UserPatch {
	return UserPatch{
		ID:          firstNonEmpty(p.ID, q.ID),
		Username:    q.Username.Or(p.Username),
		DisplayName: q.DisplayName.Or(p.DisplayName),
	}
}

// -----------------------------------------------------------------------------
// Channel
// -----------------------------------------------------------------------------

// ChannelPatch is a partial Channel.
type ChannelPatch struct {
	ID         string             `json:"id"`
	Name       Field[string]      `json:"name,omitzero"`
	Kind       Field[ChannelKind] `json:"kind,omitzero"`
	ServerID   Field[string]      `json:"server_id,omitzero"`
	User       Field[User]        `json:"user,omitzero"`
	Recipients Field[[]string]    `json:"-"`
}

// ChannelPatchOf returns a patch that sets every field of c.
func ChannelPatchOf(c Channel) ChannelPatch {
	p := ChannelPatch{
		ID:       c.ID,
		Name:     Set(c.Name),
		Kind:     Set(c.Kind),
		ServerID: FromPtr(c.ServerID),
		User:     FromPtr(c.User),
	}
	if c.Recipients != nil {
		p.Recipients = Set(c.Recipients)
	}
	return p
}

// Key returns the collection key.
func (p ChannelPatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing Channel. Null clears.
func (p ChannelPatch) Apply(c *Channel) {
	assign(&c.Name, p.Name)
	assign(&c.Kind, p.Kind)
	assignPtr(&c.ServerID, p.ServerID)
	assignPtr(&c.User, p.User)
	assign(&c.Recipients, p.Recipients)
}

// Full builds a new Channel from p, or fails with ErrShapeMismatch if the key is missing.
func (p ChannelPatch) Full() (Channel, error) {
	if p.ID == "" {
		return Channel{}, ErrShapeMismatch
	}
	c := Channel{ID: p.ID}
	p.Apply(&c)
	return c, nil
}

// Merge composes p and q. Fields present in q win.
func (p ChannelPatch) Merge(q ChannelPatch) ChannelPatch {
	return ChannelPatch{
		ID:         firstNonEmpty(p.ID, q.ID),
		Name:       q.Name.Or(p.Name),
		Kind:       q.Kind.Or(p.Kind),
		ServerID:   q.ServerID.Or(p.ServerID),
		User:       q.User.Or(p.User),
		Recipients: q.Recipients.Or(p.Recipients),
	}
}

// -----------------------------------------------------------------------------
// Member
// -----------------------------------------------------------------------------

// MemberPatch is a partial Member. ServerID and UserID form the key.
type MemberPatch struct {
	ServerID  string           `json:"server_id"`
	UserID    string           `json:"user_id"`
	CreatedAt Field[time.Time] `json:"created_at,omitzero"`
	Nickname  Field[string]    `json:"nickname,omitzero"`
	User      Field[User]      `json:"user,omitzero"`
}

// MemberPatchOf returns a patch that sets every field of m.
func MemberPatchOf(m Member) MemberPatch {
	return MemberPatch{
		ServerID:  m.ServerID,
		UserID:    m.UserID,
		CreatedAt: Set(m.CreatedAt),
		Nickname:  FromPtr(m.Nickname),
		User:      FromPtr(m.User),
	}
}

// Key returns the collection key.
func (p MemberPatch) Key() string { return MemberID(p.ServerID, p.UserID) }

// Apply merges the present fields of p onto an existing Member. Null clears.
func (p MemberPatch) Apply(m *Member) {
	assign(&m.CreatedAt, p.CreatedAt)
	assignPtr(&m.Nickname, p.Nickname)
	assignPtr(&m.User, p.User)
}

// Full builds a new Member from p, or fails with ErrShapeMismatch if the key is missing.
func (p MemberPatch) Full() (Member, error) {
	if p.ServerID == "" || p.UserID == "" {
		return Member{}, ErrShapeMismatch
	}
	m := Member{ServerID: p.ServerID, UserID: p.UserID}
	p.Apply(&m)
	return m, nil
}

// Merge composes p and q. Fields present in q win.
func (p MemberPatch) Merge(q MemberPatch) MemberPatch {
	return MemberPatch{
		ServerID:  firstNonEmpty(p.ServerID, q.ServerID),
		UserID:    firstNonEmpty(p.UserID, q.UserID),
		CreatedAt: q.CreatedAt.Or(p.CreatedAt),
		Nickname:  q.Nickname.Or(p.Nickname),
		User:      q.User.Or(p.User),
	}
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

// MessagePatch is a partial Message.
type MessagePatch struct {
	ID        string           `json:"id"`
	Kind      Field[string]    `json:"kind,omitzero"`
	Content   Field[string]    `json:"content,omitzero"`
	ChannelID Field[string]    `json:"channel_id,omitzero"`
	User      Field[User]      `json:"user,omitzero"`
	Member    Field[Member]    `json:"member,omitzero"`
	UpdatedAt Field[time.Time] `json:"updated_at,omitzero"`
}

// MessagePatchOf returns a patch that sets every field of m.
func MessagePatchOf(m Message) MessagePatch {
	return MessagePatch{
		ID:        m.ID,
		Kind:      Set(m.Kind),
		Content:   Set(m.Content),
		ChannelID: Set(m.ChannelID),
		User:      Set(m.User),
		Member:    FromPtr(m.Member),
		UpdatedAt: FromPtr(m.UpdatedAt),
	}
}

// Key returns the collection key.
func (p MessagePatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing Message. Null clears.
func (p MessagePatch) Apply(m *Message) {
	assign(&m.Kind, p.Kind)
	assign(&m.Content, p.Content)
	assign(&m.ChannelID, p.ChannelID)
	assign(&m.User, p.User)
	assignPtr(&m.Member, p.Member)
	assignPtr(&m.UpdatedAt, p.UpdatedAt)
}

// Full builds a new Message from p, or fails with ErrShapeMismatch if the key is missing.
func (p MessagePatch) Full() (Message, error) {
	if p.ID == "" {
		return Message{}, ErrShapeMismatch
	}
	m := Message{ID: p.ID}
	p.Apply(&m)
	return m, nil
}

// Merge composes p and q. Fields present in q win.
func (p MessagePatch) Merge(q MessagePatch) MessagePatch {
	return MessagePatch{
		ID:        firstNonEmpty(p.ID, q.ID),
		Kind:      q.Kind.Or(p.Kind),
		Content:   q.Content.Or(p.Content),
		ChannelID: q.ChannelID.Or(p.ChannelID),
		User:      q.User.Or(p.User),
		Member:    q.Member.Or(p.Member),
		UpdatedAt: q.UpdatedAt.Or(p.UpdatedAt),
	}
}

// -----------------------------------------------------------------------------
// Invite
// -----------------------------------------------------------------------------

// InvitePatch is a partial Invite.
type InvitePatch struct {
	ID        string           `json:"id"`
	Server    Field[Server]    `json:"server,omitzero"`
	CreatedAt Field[time.Time] `json:"created_at,omitzero"`
	ExpiresAt Field[time.Time] `json:"expires_at,omitzero"`
}

// InvitePatchOf returns a patch that sets every field of i.
func InvitePatchOf(i Invite) InvitePatch {
	return InvitePatch{ID: i.ID, Server: Set(i.Server), CreatedAt: Set(i.CreatedAt), ExpiresAt: Set(i.ExpiresAt)}
}

// Key returns the collection key.
func (p InvitePatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing Invite. Null clears.
func (p InvitePatch) Apply(i *Invite) {
	assign(&i.Server, p.Server)
	assign(&i.CreatedAt, p.CreatedAt)
	assign(&i.ExpiresAt, p.ExpiresAt)
}

// Full builds a new Invite from p, or fails with ErrShapeMismatch if the key is missing.
func (p InvitePatch) Full() (Invite, error) {
	if p.ID == "" {
		return Invite{}, ErrShapeMismatch
	}
	i := Invite{ID: p.ID}
	p.Apply(&i)
	return i, nil
}

// Merge composes p and q. Fields present in q win.
func (p InvitePatch) Merge(q InvitePatch) InvitePatch {
	return InvitePatch{
		ID:        firstNonEmpty(p.ID, q.ID),
		Server:    q.Server.Or(p.Server),
		CreatedAt: q.CreatedAt.Or(p.CreatedAt),
		ExpiresAt: q.ExpiresAt.Or(p.ExpiresAt),
	}
}

// -----------------------------------------------------------------------------
// Friend
// -----------------------------------------------------------------------------

// FriendPatch is a partial Friend. ID must be set by the caller to the other
// party's user id.
type FriendPatch struct {
	ID        string           `json:"-"`
	User      Field[User]      `json:"user,omitzero"`
	Friend    Field[User]      `json:"friend,omitzero"`
	CreatedAt Field[time.Time] `json:"created_at,omitzero"`
	Channel   Field[Channel]   `json:"channel,omitzero"`
}

// FriendPatchOf returns a patch that sets every field of f.
func FriendPatchOf(f Friend) FriendPatch {
	return FriendPatch{
		ID:        f.ID,
		User:      Set(f.User),
		Friend:    Set(f.Friend),
		CreatedAt: Set(f.CreatedAt),
		Channel:   Set(f.Channel),
	}
}

// Key returns the collection key.
func (p FriendPatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing Friend. Null clears.
func (p FriendPatch) Apply(f *Friend) {
	assign(&f.User, p.User)
	assign(&f.Friend, p.Friend)
	assign(&f.CreatedAt, p.CreatedAt)
	assign(&f.Channel, p.Channel)
}

// Full builds a new Friend from p, or fails with ErrShapeMismatch if the key is missing.
func (p FriendPatch) Full() (Friend, error) {
	if p.ID == "" {
		return Friend{}, ErrShapeMismatch
	}
	f := Friend{ID: p.ID}
	p.Apply(&f)
	return f, nil
}

// Merge composes p and q. Fields present in q win.
func (p FriendPatch) Merge(q FriendPatch) FriendPatch {
	return FriendPatch{
		ID:        firstNonEmpty(p.ID, q.ID),
		User:      q.User.Or(p.User),
		Friend:    q.Friend.Or(p.Friend),
		CreatedAt: q.CreatedAt.Or(p.CreatedAt),
		Channel:   q.Channel.Or(p.Channel),
	}
}

// -----------------------------------------------------------------------------
// FriendRequest
// -----------------------------------------------------------------------------

// FriendRequestPatch is a partial FriendRequest. ID is the other party.
type FriendRequestPatch struct {
	ID        string           `json:"-"`
	Sender    Field[User]      `json:"sender,omitzero"`
	Receiver  Field[User]      `json:"receiver,omitzero"`
	CreatedAt Field[time.Time] `json:"created_at,omitzero"`
}

// FriendRequestPatchOf returns a patch that sets every field of r.
func FriendRequestPatchOf(r FriendRequest) FriendRequestPatch {
	return FriendRequestPatch{
		ID:        r.ID,
		Sender:    Set(r.Sender),
		Receiver:  Set(r.Receiver),
		CreatedAt: Set(r.CreatedAt),
	}
}

// Key returns the collection key.
func (p FriendRequestPatch) Key() string { return p.ID }

// Apply merges the present fields of p onto an existing FriendRequest. Null clears.
func (p FriendRequestPatch) Apply(r *FriendRequest) {
	assign(&r.Sender, p.Sender)
	assign(&r.Receiver, p.Receiver)
	assign(&r.CreatedAt, p.CreatedAt)
}

// Full builds a new FriendRequest from p, or fails with ErrShapeMismatch if the key is missing.
func (p FriendRequestPatch) Full() (FriendRequest, error) {
	if p.ID == "" {
		return FriendRequest{}, ErrShapeMismatch
	}
	r := FriendRequest{ID: p.ID}
	p.Apply(&r)
	return r, nil
}

// Merge composes p and q. Fields present in q win.
func (p FriendRequestPatch) Merge(q FriendRequestPatch) FriendRequestPatch {
	return FriendRequestPatch{
		ID:        firstNonEmpty(p.ID, q.ID),
		Sender:    q.Sender.Or(p.Sender),
		Receiver:  q.Receiver.Or(p.Receiver),
		CreatedAt: q.CreatedAt.Or(p.CreatedAt),
	}
}
