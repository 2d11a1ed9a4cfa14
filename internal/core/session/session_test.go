package session

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(ID(c))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	app := setupApp()

	t.Run("KeepsValidHeader", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(Header, "session_abc123")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "session_abc123", resp.Header.Get(Header))
	})

	t.Run("MintsWhenMissing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
		require.NoError(t, err)

		_, parseErr := uuid.Parse(resp.Header.Get(Header))
		assert.NoError(t, parseErr)
	})

	t.Run("ReplacesMalformed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(Header, "../../etc/passwd")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, "../../etc/passwd", resp.Header.Get(Header))
	})
}

func TestLocks(t *testing.T) {
	locks := NewLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("s1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestLocks_IndependentSessions(t *testing.T) {
	locks := NewLocks()

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
