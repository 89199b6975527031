package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zain975/plot-pick-backend/models"
)

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(db, nil)
	user := createTestUser(t, db, "poster")

	post, err := svc.CreatePost(user.ID, &CreatePostRequest{
		Description: "Called the twist three episodes early",
		MediaURLs:   []string{"https://fake-bucket.s3.us-east-1.amazonaws.com/posts/1/clip.mp4"},
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, post.UserID)
	assert.Len(t, post.MediaURLs, 1)
	require.NotNil(t, post.User)
	assert.Equal(t, user.UniqueHandle, post.User.UniqueHandle)

	t.Run("empty post rejected", func(t *testing.T) {
		_, err := svc.CreatePost(user.ID, &CreatePostRequest{})
		requireAPIError(t, err, http.StatusBadRequest)
	})
}

func TestGetFeed(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	follows := NewFollowService(db)

	viewer := createTestUser(t, db, "feedviewer")
	followed := createTestUser(t, db, "feedauthor")
	stranger := createTestUser(t, db, "feedstranger")

	_, err := follows.ToggleFollow(viewer.ID, followed.ID)
	require.NoError(t, err)

	own, err := posts.CreatePost(viewer.ID, &CreatePostRequest{Description: "my own take"})
	require.NoError(t, err)
	theirs, err := posts.CreatePost(followed.ID, &CreatePostRequest{Description: "followed take"})
	require.NoError(t, err)
	_, err = posts.CreatePost(stranger.ID, &CreatePostRequest{Description: "stranger take"})
	require.NoError(t, err)

	feed, err := posts.GetFeed(viewer.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)

	ids := []uint{feed.Posts[0].ID, feed.Posts[1].ID}
	assert.Contains(t, ids, own.ID)
	assert.Contains(t, ids, theirs.ID)
}

func TestUpdateAndDeletePostOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(db, nil)

	owner := createTestUser(t, db, "postowner")
	intruder := createTestUser(t, db, "postintruder")

	post, err := svc.CreatePost(owner.ID, &CreatePostRequest{Description: "original"})
	require.NoError(t, err)

	desc := "hijacked"
	_, err = svc.UpdatePost(post.ID, intruder.ID, &UpdatePostRequest{Description: &desc})
	requireAPIError(t, err, http.StatusForbidden)

	err = svc.DeletePost(context.Background(), post.ID, intruder.ID)
	requireAPIError(t, err, http.StatusForbidden)

	desc = "edited"
	updated, err := svc.UpdatePost(post.ID, owner.ID, &UpdatePostRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Description)

	require.NoError(t, svc.DeletePost(context.Background(), post.ID, owner.ID))
	_, err = svc.GetPost(post.ID, owner.ID)
	requireAPIError(t, err, http.StatusNotFound)
}

func TestDeletePostRemovesMedia(t *testing.T) {
	db := newTestDB(t)
	uploader := newFakeUploader()
	svc := NewPostService(db, uploader)
	user := createTestUser(t, db, "mediadeleter")

	url, err := uploader.Upload(context.Background(), []byte("clip"), "posts/1/media-clip.mp4", "video/mp4")
	require.NoError(t, err)

	post, err := svc.CreatePost(user.ID, &CreatePostRequest{MediaURLs: []string{url}})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(context.Background(), post.ID, user.ID))
	assert.Contains(t, uploader.deleted, "posts/1/media-clip.mp4")
}

func TestTogglePostLike(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(db, nil)

	author := createTestUser(t, db, "likeauthor")
	liker := createTestUser(t, db, "liker")

	post, err := svc.CreatePost(author.ID, &CreatePostRequest{Description: "like me"})
	require.NoError(t, err)

	on, err := svc.ToggleLike(post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
	assert.Equal(t, 1, on.Count)

	viewed, err := svc.GetPost(post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsLiked)
	assert.Equal(t, 1, viewed.LikesCount)

	// The author's own view is not flagged.
	authorView, err := svc.GetPost(post.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, authorView.IsLiked)

	off, err := svc.ToggleLike(post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)
	assert.Equal(t, 0, off.Count)
}

func TestTogglePostShare(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(db, nil)

	author := createTestUser(t, db, "shareauthor")
	sharer := createTestUser(t, db, "sharer")

	post, err := svc.CreatePost(author.ID, &CreatePostRequest{Description: "share me"})
	require.NoError(t, err)

	on, err := svc.ToggleShare(post.ID, sharer.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
	assert.Equal(t, 1, on.Count)

	off, err := svc.ToggleShare(post.ID, sharer.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)
	assert.Equal(t, 0, off.Count)

	_, err = svc.ToggleShare(9999, sharer.ID)
	requireAPIError(t, err, http.StatusNotFound)
}

func TestComments(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	svc := NewCommentService(db)

	author := createTestUser(t, db, "commentauthor")
	commenter := createTestUser(t, db, "commenter")

	post, err := posts.CreatePost(author.ID, &CreatePostRequest{Description: "discuss"})
	require.NoError(t, err)

	top, err := svc.CreateComment(post.ID, commenter.ID, &CreateCommentRequest{Content: "Bold theory"})
	require.NoError(t, err)
	assert.Nil(t, top.ParentCommentID)

	reply, err := svc.CreateComment(post.ID, author.ID, &CreateCommentRequest{
		Content:         "Disagree",
		ParentCommentID: &top.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, top.ID, *reply.ParentCommentID)

	// A reply to a reply attaches to the top-level comment.
	nested, err := svc.CreateComment(post.ID, commenter.ID, &CreateCommentRequest{
		Content:         "Still disagree",
		ParentCommentID: &reply.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, nested.ParentCommentID)
	assert.Equal(t, top.ID, *nested.ParentCommentID)

	refreshed, err := posts.GetPost(post.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed.CommentsCount)

	listed, err := svc.GetComments(post.ID, author.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, listed.Comments, 1)
	assert.Equal(t, 2, listed.Comments[0].RepliesCount)

	replies, err := svc.GetReplies(top.ID, author.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, replies.Comments, 2)
}

func TestCommentValidation(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	svc := NewCommentService(db)
	user := createTestUser(t, db, "commentvalidator")

	postA, err := posts.CreatePost(user.ID, &CreatePostRequest{Description: "a"})
	require.NoError(t, err)
	postB, err := posts.CreatePost(user.ID, &CreatePostRequest{Description: "b"})
	require.NoError(t, err)

	onA, err := svc.CreateComment(postA.ID, user.ID, &CreateCommentRequest{Content: "on A"})
	require.NoError(t, err)

	t.Run("unknown post", func(t *testing.T) {
		_, err := svc.CreateComment(9999, user.ID, &CreateCommentRequest{Content: "lost"})
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("unknown parent", func(t *testing.T) {
		missing := uint(9999)
		_, err := svc.CreateComment(postA.ID, user.ID, &CreateCommentRequest{Content: "orphan", ParentCommentID: &missing})
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("parent from another post", func(t *testing.T) {
		_, err := svc.CreateComment(postB.ID, user.ID, &CreateCommentRequest{Content: "cross", ParentCommentID: &onA.ID})
		requireAPIError(t, err, http.StatusBadRequest)
	})
}

func TestDeleteCommentMaintainsCounters(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	svc := NewCommentService(db)
	user := createTestUser(t, db, "commentdeleter")

	post, err := posts.CreatePost(user.ID, &CreatePostRequest{Description: "countdown"})
	require.NoError(t, err)

	top, err := svc.CreateComment(post.ID, user.ID, &CreateCommentRequest{Content: "top"})
	require.NoError(t, err)
	_, err = svc.CreateComment(post.ID, user.ID, &CreateCommentRequest{Content: "reply", ParentCommentID: &top.ID})
	require.NoError(t, err)

	// Deleting the top-level comment removes its replies too.
	require.NoError(t, svc.DeleteComment(top.ID, user.ID))

	refreshed, err := posts.GetPost(post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed.CommentsCount)

	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.EqualValues(t, 0, remaining)
}

func TestDeleteCommentRemovesLikes(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	svc := NewCommentService(db)

	author := createTestUser(t, db, "likecleanauthor")
	liker := createTestUser(t, db, "likecleanliker")

	post, err := posts.CreatePost(author.ID, &CreatePostRequest{Description: "cleanup"})
	require.NoError(t, err)

	top, err := svc.CreateComment(post.ID, author.ID, &CreateCommentRequest{Content: "top"})
	require.NoError(t, err)
	reply, err := svc.CreateComment(post.ID, liker.ID, &CreateCommentRequest{Content: "reply", ParentCommentID: &top.ID})
	require.NoError(t, err)
	keeper, err := svc.CreateComment(post.ID, liker.ID, &CreateCommentRequest{Content: "unrelated"})
	require.NoError(t, err)

	for _, id := range []uint{top.ID, reply.ID, keeper.ID} {
		_, err := svc.ToggleLike(id, liker.ID)
		require.NoError(t, err)
	}

	// Removing the thread takes the likes on it along, the rest stays.
	require.NoError(t, svc.DeleteComment(top.ID, author.ID))

	var likes int64
	require.NoError(t, db.Model(&models.CommentLike{}).Count(&likes).Error)
	assert.EqualValues(t, 1, likes)

	var kept models.CommentLike
	require.NoError(t, db.First(&kept).Error)
	assert.Equal(t, keeper.ID, kept.CommentID)
}

func TestDeletePostRemovesCommentLikes(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	comments := NewCommentService(db)

	author := createTestUser(t, db, "postcleanauthor")
	liker := createTestUser(t, db, "postcleanliker")

	post, err := posts.CreatePost(author.ID, &CreatePostRequest{Description: "doomed"})
	require.NoError(t, err)
	comment, err := comments.CreateComment(post.ID, liker.ID, &CreateCommentRequest{Content: "soon gone"})
	require.NoError(t, err)
	_, err = comments.ToggleLike(comment.ID, author.ID)
	require.NoError(t, err)

	other, err := posts.CreatePost(author.ID, &CreatePostRequest{Description: "survives"})
	require.NoError(t, err)
	otherComment, err := comments.CreateComment(other.ID, liker.ID, &CreateCommentRequest{Content: "stays"})
	require.NoError(t, err)
	_, err = comments.ToggleLike(otherComment.ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, posts.DeletePost(context.Background(), post.ID, author.ID))

	var likes []models.CommentLike
	require.NoError(t, db.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.Equal(t, otherComment.ID, likes[0].CommentID)
}

func TestToggleCommentLike(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	svc := NewCommentService(db)

	author := createTestUser(t, db, "clauthor")
	liker := createTestUser(t, db, "clliker")

	post, err := posts.CreatePost(author.ID, &CreatePostRequest{Description: "c"})
	require.NoError(t, err)
	comment, err := svc.CreateComment(post.ID, author.ID, &CreateCommentRequest{Content: "like this"})
	require.NoError(t, err)

	on, err := svc.ToggleLike(comment.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
	assert.Equal(t, 1, on.Count)

	off, err := svc.ToggleLike(comment.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)
	assert.Equal(t, 0, off.Count)
}

func TestToggleFollow(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowService(db)

	alice := createTestUser(t, db, "alicefollows")
	bob := createTestUser(t, db, "bobfollowed")

	on, err := svc.ToggleFollow(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, on.Following)
	assert.Equal(t, 1, on.FollowersCount)

	var refreshedAlice, refreshedBob models.User
	require.NoError(t, db.First(&refreshedAlice, alice.ID).Error)
	require.NoError(t, db.First(&refreshedBob, bob.ID).Error)
	assert.Equal(t, 1, refreshedAlice.FollowingCount)
	assert.Equal(t, 1, refreshedBob.FollowersCount)

	followers, err := svc.GetFollowers(bob.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, followers.Users, 1)
	assert.Equal(t, alice.ID, followers.Users[0].ID)

	following, err := svc.GetFollowing(alice.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, following.Users, 1)
	assert.Equal(t, bob.ID, following.Users[0].ID)

	off, err := svc.ToggleFollow(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, off.Following)
	assert.Equal(t, 0, off.FollowersCount)

	t.Run("self follow rejected", func(t *testing.T) {
		_, err := svc.ToggleFollow(alice.ID, alice.ID)
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := svc.ToggleFollow(alice.ID, 9999)
		requireAPIError(t, err, http.StatusNotFound)
	})
}
