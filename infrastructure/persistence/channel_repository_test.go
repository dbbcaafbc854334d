package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChannelLinkStripsChatPrefix(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "channel_id", "username", "user_id", "target_id", "post_as_group", "is_active", "created_at"}).
		AddRow(1, 1234567890, "mychannel", 42, 100, true, true, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM telegram_channels tc")).
		WithArgs(int64(1234567890)).
		WillReturnRows(rows)

	repo := NewChannelRepository(db)
	link, err := repo.GetChannelLink(context.Background(), -1001234567890)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, int64(1234567890), link.ChannelID)
	assert.Equal(t, "mychannel", link.ChannelUsername)
	assert.Equal(t, int64(42), link.UserID)
	assert.Equal(t, int64(100), link.TargetID)
	assert.True(t, link.PostAsGroup)
	assert.Equal(t, int64(-100), link.OwnerID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChannelLinkNoActiveLink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM telegram_channels tc")).
		WithArgs(int64(555)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "channel_id", "username", "user_id", "target_id", "post_as_group", "is_active", "created_at"}))

	repo := NewChannelRepository(db)
	link, err := repo.GetChannelLink(context.Background(), -100555)
	require.NoError(t, err)
	assert.Nil(t, link)
	require.NoError(t, mock.ExpectationsWereMet())
}
