package model

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestField_UnmarshalTriState(t *testing.T) {
	var p UserPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","display_name":null}`), &p))

	assert.Equal(t, "7", p.ID)
	assert.True(t, p.Username.IsAbsent(), "missing key must stay absent")
	assert.True(t, p.DisplayName.IsNull(), "explicit null must be null")

	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","username":"neo"}`), &p))
	v, ok := p.Username.Get()
	assert.True(t, ok)
	assert.Equal(t, "neo", v)
}

func TestField_MarshalOmitsAbsent(t *testing.T) {
	p := UserPatch{ID: "1", DisplayName: Null[string]()}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","display_name":null}`, string(data))
}

func TestUserPatch_NullClearsAbsentPreserves(t *testing.T) {
	u := User{ID: "1", Username: "neo", DisplayName: strPtr("The One")}

	UserPatch{ID: "1", DisplayName: Null[string]()}.Apply(&u)
	assert.Nil(t, u.DisplayName)
	assert.Equal(t, "neo", u.Username)

	UserPatch{ID: "1", Username: Set("thomas")}.Apply(&u)
	assert.Equal(t, "thomas", u.Username)
	assert.Nil(t, u.DisplayName)
}

func TestPatch_MergeComposes(t *testing.T) {
	base := Message{
		ID:        "5",
		Kind:      "text",
		Content:   "hello",
		ChannelID: "2",
		User:      User{ID: "9", Username: "trinity"},
	}
	edited := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		p1   MessagePatch
		p2   MessagePatch
	}{
		{
			name: "disjoint fields",
			p1:   MessagePatch{ID: "5", Content: Set("edited")},
			p2:   MessagePatch{ID: "5", UpdatedAt: Set(edited)},
		},
		{
			name: "overlapping fields",
			p1:   MessagePatch{ID: "5", Content: Set("first")},
			p2:   MessagePatch{ID: "5", Content: Set("second")},
		},
		{
			name: "null after value",
			p1:   MessagePatch{ID: "5", UpdatedAt: Set(edited)},
			p2:   MessagePatch{ID: "5", UpdatedAt: Null[time.Time]()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := base
			tt.p1.Apply(&seq)
			tt.p2.Apply(&seq)

			composed := base
			tt.p1.Merge(tt.p2).Apply(&composed)

			assert.Equal(t, seq, composed)
		})
	}
}

func TestPatch_FullRequiresKey(t *testing.T) {
	_, err := ServerPatch{Name: Set("x")}.Full()
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = MemberPatch{ServerID: "1"}.Full()
	assert.ErrorIs(t, err, ErrShapeMismatch)

	m, err := MemberPatch{ServerID: "1", UserID: "2", Nickname: Set("nick")}.Full()
	require.NoError(t, err)
	assert.Equal(t, "1-2", m.Key())
	require.NotNil(t, m.Nickname)
	assert.Equal(t, "nick", *m.Nickname)
}

func TestPatchOf_RoundTrip(t *testing.T) {
	c := Channel{ID: "3", Name: "general", Kind: ChannelText, ServerID: strPtr("1")}
	got, err := ChannelPatchOf(c).Full()
	require.NoError(t, err)
	assert.Equal(t, c, got)

	dm := Channel{ID: "4", Name: "dm", Kind: ChannelDM, User: &User{ID: "9"}, Recipients: []string{"1", "9"}}
	got, err = ChannelPatchOf(dm).Full()
	require.NoError(t, err)
	assert.Equal(t, dm, got)
}

func TestCompareIDs(t *testing.T) {
	ids := []string{"100", "20", "3", "1-10", "1-9", "abc", "10-2", "003"}
	sort.Slice(ids, func(i, j int) bool { return CompareIDs(ids[i], ids[j]) < 0 })

	assert.Equal(t, []string{"1-9", "1-10", "003", "3", "10-2", "20", "100", "abc"}, ids)
	assert.Equal(t, 0, CompareIDs("42", "42"))
	assert.Equal(t, -1, CompareIDs("9", "10"))
	assert.Equal(t, 1, CompareIDs("b", "a"))
}

func TestIconBucket(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"1", 0},
		{"4194304", 1},  // 1 << 22
		{"12582912", 3}, // 3 << 22
		{"16777216", 0}, // 4 << 22
		{"not-a-number", 0},
	}

	for _, tt := range tests {
		if got := IconBucket(tt.id); got != tt.want {
			t.Errorf("IconBucket(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}

	assert.Equal(t, "/user-icons/1.svg", IconURL("user", "4194304"))
}

func TestMessage_AuthorName(t *testing.T) {
	m := Message{User: User{ID: "9", Username: "trinity"}}
	assert.Equal(t, "trinity", m.AuthorName())

	m.User.DisplayName = strPtr("Trinity")
	assert.Equal(t, "Trinity", m.AuthorName())

	m.Member = &Member{Nickname: strPtr("T")}
	assert.Equal(t, "T", m.AuthorName())

	assert.Equal(t, "Deleted User", Message{}.AuthorName())
}

func TestOtherParty(t *testing.T) {
	assert.Equal(t, "2", OtherParty("1", "1", "2"))
	assert.Equal(t, "2", OtherParty("1", "2", "1"))
}
