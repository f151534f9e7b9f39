package oss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/vivah_server/config"
)

func newTestClient(t *testing.T, cdn string) *Client {
	t.Helper()
	c, err := NewClient(&config.OSSConfig{
		Endpoint:        "oss-ap-south-1.aliyuncs.com",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		BucketName:      "vivah-photos",
		CDNDomain:       cdn,
	})
	require.NoError(t, err)
	return c
}

func TestPhotoObjectKey(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "photos/42/1700000000.jpg", PhotoObjectKey(42, at, ".jpg"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType(".JPG"))
	assert.Equal(t, "image/jpeg", ContentType(".jpeg"))
	assert.Equal(t, "image/png", ContentType(".png"))
	assert.Equal(t, "image/webp", ContentType(".webp"))
	assert.Equal(t, "application/octet-stream", ContentType(".exe"))

	assert.True(t, IsAllowedImage(".png"))
	assert.False(t, IsAllowedImage(".gif"))
}

func TestClient_GetURL(t *testing.T) {
	c := newTestClient(t, "")
	assert.Equal(t, "https://vivah-photos.oss-ap-south-1.aliyuncs.com/photos/1/2.jpg", c.GetURL("photos/1/2.jpg"))

	cdn := newTestClient(t, "img.example.com")
	assert.Equal(t, "https://img.example.com/photos/1/2.jpg", cdn.GetURL("photos/1/2.jpg"))
}

func TestClient_ExtractObjectKey(t *testing.T) {
	c := newTestClient(t, "img.example.com")

	assert.Equal(t, "photos/1/2.jpg", c.ExtractObjectKey("https://img.example.com/photos/1/2.jpg"))
	assert.Equal(t, "photos/1/2.jpg", c.ExtractObjectKey("https://vivah-photos.oss-ap-south-1.aliyuncs.com/photos/1/2.jpg"))
	assert.Equal(t, "2.jpg", c.ExtractObjectKey("2.jpg"))
}
