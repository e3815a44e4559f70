package bookings

import (
	"context"
	"testing"

	"courtside/pkg/cache"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSessionBookingMalformedRecordIsPurgedMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewRepository(nil, cache.NewService(client))

	key := "courtside:session:{sess-1}:booking"
	mock.ExpectGet(key).SetVal("{corrupt json")
	mock.ExpectDel(key).SetVal(1)

	record, err := repo.GetSessionBooking(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}
