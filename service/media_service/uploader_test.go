package media_service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignMatchesCloudinaryExample(t *testing.T) {
	// https://cloudinary.com/documentation/authentication_signatures
	params := map[string]string{
		"eager":     "w_400,h_300,c_pad|w_260,h_200,c_crop",
		"public_id": "sample_image",
		"timestamp": "1315060510",
	}
	assert.Equal(t, "bfd09f95f331f558cbd1320e67aa8d488770583e", Sign(params, "abcd"))
}

func TestUploadPostsSignedForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "key", r.PostForm.Get("api_key"))
		assert.Equal(t, "chat_images", r.PostForm.Get("folder"))
		assert.Equal(t, "1700000000", r.PostForm.Get("timestamp"))
		assert.True(t, strings.HasPrefix(r.PostForm.Get("file"), "data:image/png;base64,"))
		assert.Equal(t, Sign(map[string]string{"folder": "chat_images", "timestamp": "1700000000"}, "secret"), r.PostForm.Get("signature"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/x.png"}`))
	}))
	defer srv.Close()

	u, err := NewCloudinaryUploader(&Config{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	defer u.Close()
	u.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := u.Upload(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/x.png", url)
}

func TestUploadErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	u, err := NewCloudinaryUploader(&Config{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	defer u.Close()

	_, err = u.Upload(context.Background(), []byte("img"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}

func TestNewCloudinaryUploaderRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryUploader(&Config{CloudName: "demo"})
	assert.Error(t, err)
}

func TestInlineUploader(t *testing.T) {
	url, err := InlineUploader{}.Upload(context.Background(), []byte("abc"), "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "data:image/gif;base64,YWJj", url)

	_, err = InlineUploader{}.Upload(context.Background(), nil, "image/gif")
	assert.Error(t, err)
}
