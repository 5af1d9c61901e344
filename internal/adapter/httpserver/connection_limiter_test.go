package httpserver

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	apperrors "github.com/Jelka-FMF/Veter/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionLimiter_AcquireRelease(t *testing.T) {
	l := NewConnectionLimiter(2)

	assert.True(t, l.Acquire())
	assert.True(t, l.Acquire())
	assert.False(t, l.Acquire())
	assert.Equal(t, int64(2), l.Current())
	assert.Equal(t, int64(2), l.Max())

	l.Release()
	assert.Equal(t, int64(1), l.Current())
	assert.True(t, l.Acquire())
}

func TestConnectionLimiter_ConcurrentAcquireNeverExceedsMax(t *testing.T) {
	l := NewConnectionLimiter(10)

	var (
		wg       sync.WaitGroup
		mutex    sync.Mutex
		acquired int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() {
				mutex.Lock()
				acquired++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, acquired)
	assert.Equal(t, int64(10), l.Current())
}

func TestConnectionLimiter_Middleware(t *testing.T) {
	l := NewConnectionLimiter(1)
	mw := l.Middleware()

	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := mw(func(c echo.Context) error {
		close(entered)
		<-release
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	done := make(chan error, 1)
	go func() {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/state/stream", nil), httptest.NewRecorder())
		done <- blocking(c)
	}()
	<-entered

	rejected := mw(func(c echo.Context) error {
		t.Fatal("handler must not run when the limit is reached")
		return nil
	})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/state/stream", nil), httptest.NewRecorder())
	err := rejected(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.AsStructuredError(err).HTTPStatus())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(0), l.Current())
}
