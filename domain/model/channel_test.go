package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOwnerIDCommunityWall(t *testing.T) {
	link := &ChannelLink{TargetID: 100, PostAsGroup: true}
	assert.Equal(t, int64(-100), link.OwnerID())

	// Already-negative target ids normalize to the same owner.
	link = &ChannelLink{TargetID: -100, PostAsGroup: true}
	assert.Equal(t, int64(-100), link.OwnerID())
}

func TestOwnerIDPersonalWall(t *testing.T) {
	link := &ChannelLink{TargetID: 100, PostAsGroup: false}
	assert.Equal(t, int64(100), link.OwnerID())

	link = &ChannelLink{TargetID: -100, PostAsGroup: false}
	assert.Equal(t, int64(100), link.OwnerID())
}

func TestInternalChannelID(t *testing.T) {
	assert.Equal(t, int64(1234567890), InternalChannelID(-1001234567890))
	assert.Equal(t, int64(1234567890), InternalChannelID(1234567890))
	assert.Equal(t, int64(555), InternalChannelID(-555))
}

func TestCredentialStaleBoundary(t *testing.T) {
	now := time.Unix(1700000000, 0)

	in299 := now.Add(299 * time.Second)
	in301 := now.Add(301 * time.Second)

	assert.True(t, (&Credential{ExpiresAt: &in299}).Stale(now))
	assert.False(t, (&Credential{ExpiresAt: &in301}).Stale(now))
	assert.True(t, (&Credential{}).Stale(now))
}

func TestIsUserForward(t *testing.T) {
	assert.True(t, (&Message{ForwardFromUser: true}).IsUserForward())
	assert.False(t, (&Message{ForwardFromChat: true}).IsUserForward())
	// Forwards that carry both origins count as channel content.
	assert.False(t, (&Message{ForwardFromUser: true, ForwardFromChat: true}).IsUserForward())
	assert.False(t, (&Message{}).IsUserForward())
}
