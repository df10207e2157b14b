package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDriver accepts any DSN and answers pings without a server.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }
func (stubConn) Ping(context.Context) error          { return nil }

var registerStub sync.Once

func useStubDriver(t *testing.T, fail func() bool) *int32 {
	t.Helper()
	registerStub.Do(func() { sql.Register("dbstub", stubDriver{}) })

	var opens int32
	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) {
		atomic.AddInt32(&opens, 1)
		if fail != nil && fail() {
			return nil, driver.ErrBadConn
		}
		return sql.Open("dbstub", dsn)
	}
	resetSingleton()
	t.Cleanup(func() {
		openDB = prev
		resetSingleton()
	})
	return &opens
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", Defaults(ProfileServer))
	assert.ErrorIs(t, err, ErrNoDatabaseURL)
}

func TestDefaultsByProfile(t *testing.T) {
	assert.Equal(t, 2, Defaults(ProfileLambda).MaxOpenConns)
	assert.Equal(t, 1, Defaults(ProfileMigrate).MaxOpenConns)
	assert.Equal(t, 10, Defaults(ProfileServer).MaxOpenConns)
	assert.Equal(t, Defaults(ProfileServer), Defaults("unknown"))
}

func TestRuntimeProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.Equal(t, ProfileServer, RuntimeProfile())
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "probate-api")
	assert.Equal(t, ProfileLambda, RuntimeProfile())
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	useStubDriver(t, nil)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "not-a-duration")

	opts := OptionsFromEnv(Defaults(ProfileServer))
	assert.Equal(t, 3, opts.MaxIdleConns)
	assert.Equal(t, 20*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, 45*time.Second, opts.ConnMaxIdleTime)
	assert.Equal(t, 5*time.Second, opts.PingTimeout, "invalid override keeps the default")

	pool, err := Open(context.Background(), "postgres://stub", ProfileServer)
	require.NoError(t, err)
	defer pool.Close()
	assert.Equal(t, 7, pool.Stats().MaxOpenConnections)
}

func TestGetSingletonReusesPool(t *testing.T) {
	opens := useStubDriver(t, nil)

	var wg sync.WaitGroup
	pools := make([]*sql.DB, 8)
	for i := range pools {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := GetSingleton(context.Background(), "postgres://stub", Defaults(ProfileLambda))
			assert.NoError(t, err)
			pools[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range pools[1:] {
		assert.Same(t, pools[0], p)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(opens))
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	useStubDriver(t, func() bool { return atomic.AddInt32(&calls, 1) == 1 })

	_, err := GetSingleton(context.Background(), "postgres://stub", Defaults(ProfileLambda))
	require.Error(t, err)

	pool, err := GetSingleton(context.Background(), "postgres://stub", Defaults(ProfileLambda))
	require.NoError(t, err)
	assert.NotNil(t, pool)
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil))
	_, err := SchemaVersion(context.Background(), nil)
	assert.Error(t, err)
}
