package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crossposter/domain/model"
)

type mockSettings struct {
	mock.Mock
}

func (m *mockSettings) GetChannelLink(ctx context.Context, chatID int64) (*model.ChannelLink, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChannelLink), args.Error(1)
}

func TestChannelLinkCacheNilClientPassesThrough(t *testing.T) {
	settings := new(mockSettings)
	link := &model.ChannelLink{ID: 1, ChannelID: 123, TargetID: 100, Active: true}
	settings.On("GetChannelLink", mock.Anything, int64(-100123)).Return(link, nil).Twice()

	c := NewChannelLinkCache(settings, nil, 0)
	for i := 0; i < 2; i++ {
		got, err := c.GetChannelLink(context.Background(), -100123)
		require.NoError(t, err)
		assert.Equal(t, link, got)
	}
	settings.AssertExpectations(t)
}

func TestChannelLinkCacheNilClientNoLink(t *testing.T) {
	settings := new(mockSettings)
	settings.On("GetChannelLink", mock.Anything, int64(-100555)).Return(nil, nil).Once()

	c := NewChannelLinkCache(settings, nil, 0)
	got, err := c.GetChannelLink(context.Background(), -100555)
	require.NoError(t, err)
	assert.Nil(t, got)
	settings.AssertExpectations(t)
}
