package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/domain/model"
)

func TestUpsertMappingIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Publishing the same message twice runs the same statement; the
	// ON CONFLICT clause turns the second run into an update.
	upsert := regexp.QuoteMeta("ON CONFLICT (telegram_message_id, user_id) DO UPDATE SET")
	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewPostMappingRepository(db)
	m := &model.PostMapping{
		TelegramMessageID: 42,
		UserID:            7,
		TelegramChannelID: 1234567890,
		VKPostID:          321,
		PublishedAt:       time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertMapping(context.Background(), m))
	assert.Equal(t, "published", m.Status)

	m.VKPostID = 322
	require.NoError(t, repo.UpsertMapping(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByMessageID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	group := "g1"
	rows := sqlmock.NewRows([]string{"id", "telegram_message_id", "user_id", "telegram_channel_id", "vk_post_id", "media_group_id", "content", "status", "published_at", "created_at", "updated_at"}).
		AddRow(1, 42, 7, 1234567890, 321, group, "hello", "published", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_mappings WHERE telegram_message_id=$1 AND user_id=$2")).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(rows)

	repo := NewPostMappingRepository(db)
	m, err := repo.GetByMessageID(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(321), m.VKPostID)
	require.NotNil(t, m.MediaGroupID)
	assert.Equal(t, "g1", *m.MediaGroupID)
	require.NotNil(t, m.Content)
	assert.Equal(t, "hello", *m.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMappings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "telegram_message_id", "user_id", "telegram_channel_id", "vk_post_id", "media_group_id", "content", "status", "published_at", "created_at", "updated_at"}).
		AddRow(2, 43, 7, nil, 322, nil, nil, "published", now, now, now).
		AddRow(1, 42, 7, nil, 321, nil, nil, "published", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY updated_at DESC LIMIT $1")).
		WithArgs(10).
		WillReturnRows(rows)

	repo := NewPostMappingRepository(db)
	out, err := repo.RecentMappings(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(43), out[0].TelegramMessageID)
	assert.Nil(t, out[0].MediaGroupID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMediaItemReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO media_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	repo := NewMediaItemRepository(db)
	item := &model.MediaItem{PostID: 321, FileID: "abc", FileType: "photo"}
	id, err := repo.SaveMediaItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.Equal(t, int64(9), item.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
