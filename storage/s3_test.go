package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	s := &S3Storage{bucket: "plotpick-media", region: "us-east-1"}

	t.Run("with label", func(t *testing.T) {
		key := s.Key("profile-pictures", 42, "selfie.PNG", "avatar")
		assert.Equal(t, "profile-pictures/42/avatar.PNG", key)
	})

	t.Run("without label a uuid is generated", func(t *testing.T) {
		first := s.Key("posts", 42, "clip.mp4", "")
		second := s.Key("posts", 42, "clip.mp4", "")
		assert.NotEqual(t, first, second)
		assert.True(t, strings.HasPrefix(first, "posts/42/"))
		assert.True(t, strings.HasSuffix(first, ".mp4"))
	})

	t.Run("missing extension", func(t *testing.T) {
		key := s.Key("posts", 7, "noext", "raw")
		assert.Equal(t, "posts/7/raw.bin", key)
	})
}

func TestKeyFromURL(t *testing.T) {
	s := &S3Storage{bucket: "plotpick-media", region: "us-east-1"}

	url := s.fileURL("thumbnails/3/cover.jpg")
	assert.Equal(t, "https://plotpick-media.s3.us-east-1.amazonaws.com/thumbnails/3/cover.jpg", url)
	assert.Equal(t, "thumbnails/3/cover.jpg", s.KeyFromURL(url))

	// Non-S3 URLs pass through untouched.
	assert.Equal(t, "https://example.com/file.png", s.KeyFromURL("https://example.com/file.png"))
}
