package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	Version int    `json:"version"`
	HoldID  string `json:"hold_id"`
}

func TestGet_CacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("courtside:session:abc:hold").RedisNil()

	var rec sampleRecord
	err := svc.Get(context.Background(), "courtside:session:abc:hold", &rec)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Hit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	payload, _ := json.Marshal(sampleRecord{Version: 1, HoldID: "h-1"})
	mock.ExpectGet("courtside:session:abc:hold").SetVal(string(payload))

	var rec sampleRecord
	err := svc.Get(context.Background(), "courtside:session:abc:hold", &rec)
	require.NoError(t, err)
	assert.Equal(t, "h-1", rec.HoldID)
	assert.Equal(t, 1, rec.Version)
}

func TestGet_MalformedPayloadIsCorrupt(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("k").SetVal("{not json")

	var rec sampleRecord
	err := svc.Get(context.Background(), "k", &rec)
	assert.ErrorIs(t, err, ErrCacheCorrupt)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_MarshalsWithTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	rec := sampleRecord{Version: 1, HoldID: "h-2"}
	payload, _ := json.Marshal(rec)
	mock.ExpectSet("k", payload, 5*time.Minute).SetVal("OK")

	err := svc.Set(context.Background(), "k", rec, 5*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingKeyIsNoError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectDel("gone").SetVal(0)

	assert.NoError(t, svc.Delete(context.Background(), "gone"))
}

func TestTTL_MissingKeyIsCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectTTL("gone").SetVal(-2)

	_, err := svc.TTL(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
