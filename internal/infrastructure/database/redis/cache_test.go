package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/chemtemplates/internal/testutil"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	log   *testutil.MockLogger
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.log = testutil.NewMockLogger()
	client := NewClientWithRedis(db, "test:", s.log)
	s.cache = NewRedisCache(client, s.log, WithDefaultTTL(time.Minute))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedValue struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := cachedValue{Name: "LogP", Score: 2.5}
	s.mock.ExpectGet("test:k1").SetVal(string(mustJSON(val)))

	var dest cachedValue
	s.Require().NoError(s.cache.Get(context.Background(), "k1", &dest))
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var dest cachedValue
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.Equal(ErrCacheMiss, err)
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_NullMarkerIsMiss() {
	s.mock.ExpectGet("test:k1").SetVal(nullMarker)

	var dest cachedValue
	s.Equal(ErrCacheMiss, s.cache.Get(context.Background(), "k1", &dest))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:k1").SetErr(stderrors.New("i/o timeout"))

	var dest cachedValue
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.Error(err)
	s.NotEqual(ErrCacheMiss, err)
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptPayload() {
	s.mock.ExpectGet("test:k1").SetVal("{not json")

	var dest cachedValue
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.True(errors.IsCode(err, errors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_UsesDefaultTTL() {
	val := cachedValue{Name: "QED"}
	s.mock.ExpectSet("test:k1", mustJSON(val), time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k1", val, 0))
}

func (s *CacheTestSuite) TestSet_ExplicitTTL() {
	val := cachedValue{Name: "QED"}
	s.mock.ExpectSet("test:k1", mustJSON(val), 5*time.Second).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k1", val, 5*time.Second))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:k1").SetVal(1)
	ok, err := s.cache.Exists(context.Background(), "k1")
	s.NoError(err)
	s.True(ok)
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	val := cachedValue{Name: "TPSA", Score: 40}
	s.mock.ExpectGet("test:k1").SetVal(string(mustJSON(val)))

	var calls int32
	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	s.NoError(err)
	s.Equal(val, dest)
	s.Equal(int32(0), atomic.LoadInt32(&calls))
}

func (s *CacheTestSuite) TestGetOrSet_MissLoadsAndStores() {
	val := cachedValue{Name: "TPSA", Score: 40}
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", mustJSON(val), time.Minute).SetVal("OK")

	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return val, nil
	})
	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_NilValueCachesNullMarker() {
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", nullMarker, 30*time.Second).SetVal("OK")

	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderErrorIsReturned() {
	s.mock.ExpectGet("test:k1").RedisNil()

	boom := errors.New(errors.ErrCodeOracleUnavailable, "oracle down")
	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	s.Equal(boom, err)
}

func (s *CacheTestSuite) TestGetOrSet_BackendErrorFallsBackToLoader() {
	val := cachedValue{Name: "x"}
	s.mock.ExpectGet("test:k1").SetErr(stderrors.New("connection refused"))
	s.mock.ExpectSet("test:k1", mustJSON(val), time.Minute).SetErr(stderrors.New("connection refused"))

	var dest cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return val, nil
	})
	s.NoError(err)
	s.Equal(val, dest)
	s.True(s.log.HasMessage("warn", "cache read failed, falling back to loader"))
	s.True(s.log.HasMessage("warn", "failed to set cache in GetOrSet"))
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	s.mock.ExpectScan(0, "test:template:*", 100).SetVal([]string{"test:template:1", "test:template:2"}, 7)
	s.mock.ExpectDel("test:template:1", "test:template:2").SetVal(2)
	s.mock.ExpectScan(7, "test:template:*", 100).SetVal([]string{"test:template:3"}, 0)
	s.mock.ExpectDel("test:template:3").SetVal(1)

	n, err := s.cache.DeleteByPrefix(context.Background(), "template:")
	s.NoError(err)
	s.Equal(int64(3), n)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestTTLJitter_StaysWithinBounds(t *testing.T) {
	c := &redisCache{defaultTTL: time.Minute, jitter: 0.1}
	for i := 0; i < 100; i++ {
		got := c.ttl(0)
		assert.GreaterOrEqual(t, got, 54*time.Second)
		assert.LessOrEqual(t, got, 66*time.Second)
	}
}

//Personal.AI order the ending
