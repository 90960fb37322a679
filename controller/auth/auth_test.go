package auth

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"easychat-service/tool"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKeyHex = "8170940a65bda743704be89096ce6d292f052dbb897f4b7aa5d92aa1d0e64531"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/api/users/me", mw, func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func publicKeyHex(t *testing.T) string {
	t.Helper()
	b, err := hex.DecodeString(testPrivateKeyHex)
	require.NoError(t, err)
	priv, _ := btcec.PrivKeyFromBytes(b)
	return hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

func TestHeaderMode(t *testing.T) {
	r := newRouter(Middleware(ModeHeader, 0))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set(HeaderUserID, "alice")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":401`)
}

func TestSignMode(t *testing.T) {
	r := newRouter(Middleware(ModeSign, time.Minute))
	pub := publicKeyHex(t)
	wantID, err := tool.UserIDFromPublicKey(pub)
	require.NoError(t, err)

	signed := func(ts int64, path string) *http.Request {
		stamp := strconv.FormatInt(ts, 10)
		sig, err := tool.SignMessage(SignPayload(http.MethodGet, path, stamp), testPrivateKeyHex)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set(HeaderPublicKey, pub)
		req.Header.Set(HeaderSignature, sig)
		req.Header.Set(HeaderTimestamp, stamp)
		return req
	}

	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signed(tool.MakeTimestamp(), "/api/users/me"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, wantID, w.Body.String())
	})

	t.Run("expired", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signed(tool.MakeTimestamp()-int64(2*time.Minute/time.Millisecond), "/api/users/me"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("signed for another path", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signed(tool.MakeTimestamp(), "/api/blocks"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set(HeaderUserID, "alice")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
