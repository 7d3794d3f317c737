package serviceutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(token string) *gin.Engine {
	router := gin.New()
	router.Use(VerifyAccessToken(token))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestVerifyAccessToken(t *testing.T) {
	cases := []struct {
		token    string
		header   string
		expected int
	}{
		{token: "", header: "", expected: http.StatusOK},
		{token: "secret", header: "", expected: http.StatusUnauthorized},
		{token: "secret", header: "Bearer wrong", expected: http.StatusUnauthorized},
		{token: "secret", header: "Basic secret", expected: http.StatusUnauthorized},
		{token: "secret", header: "Bearer secret", expected: http.StatusOK},
	}

	for _, test := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if test.header != "" {
			req.Header.Set("Authorization", test.header)
		}
		rec := httptest.NewRecorder()
		protectedRouter(test.token).ServeHTTP(rec, req)
		require.Equal(t, test.expected, rec.Code, "header %q", test.header)
	}
}

func TestStartHttpServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartHttpServer(ctx, addr, protectedRouter(""))
	}()

	var res *http.Response
	require.Eventually(t, func() bool {
		res, err = http.Get(fmt.Sprintf("http://%s/", addr))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
