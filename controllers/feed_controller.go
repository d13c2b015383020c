package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmedelbailey/occla-backend/middleware"
	"github.com/ahmedelbailey/occla-backend/models"
	"github.com/ahmedelbailey/occla-backend/realtime"
	"github.com/ahmedelbailey/occla-backend/storage"
	"github.com/ahmedelbailey/occla-backend/utils"
)

// defaultFeedPageSize matches the feed client, which renders two posts per page.
const defaultFeedPageSize = 2

// FeedController implements the post lifecycle: CRUD over the feed plus the
// realtime notification every connected client receives on each mutation.
type FeedController struct {
	db     *gorm.DB
	images *storage.ImageStore
	events realtime.Publisher
}

// NewFeedController wires the controller. A nil publisher is a configuration
// error: every successful mutation must be able to broadcast.
func NewFeedController(db *gorm.DB, images *storage.ImageStore, events realtime.Publisher) *FeedController {
	if events == nil {
		panic("feed controller requires an initialized event publisher")
	}
	return &FeedController{db: db, images: images, events: events}
}

// ListPosts returns a page of posts sorted newest first with creators
// populated, plus the unfiltered total for pagination metadata. A page past
// the end yields an empty list, not an error.
func (f *FeedController) ListPosts(ctx *gin.Context) {
	page, pageSize := parseFeedPagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := f.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count posts")
		return
	}

	posts := []models.Post{}
	if err := f.db.Preload("Creator").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{"posts": posts, "totalItems": total})
}

// CreatePost validates the fields, stores the uploaded image, inserts the
// post for the acting user, and broadcasts it with a minimal creator
// projection (never the full user row).
func (f *FeedController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(ctx.PostForm("title")))
	content := utils.Sanitize(strings.TrimSpace(ctx.PostForm("content")))
	if msg, ok := validatePostFields(title, content); !ok {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42210, msg)
		return
	}

	imageURL, stored, err := f.storeUploadedImage(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to store image")
		return
	}
	if !stored {
		// disallowed MIME types were dropped upstream, so they land here too
		utils.Error(ctx, http.StatusUnprocessableEntity, 42211, "no image provided")
		return
	}

	post := models.Post{
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		CreatorID: userID,
	}
	if err := f.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to create post")
		return
	}

	var creator models.User
	if err := f.db.First(&creator, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load creator")
		return
	}

	post.Creator = &models.User{ID: creator.ID, Name: creator.Name}
	f.events.Emit(realtime.Message{Channel: "posts", Action: "create", Post: post})

	utils.Respond(ctx, http.StatusCreated, 0, "post created", gin.H{
		"post":    post,
		"creator": gin.H{"_id": creator.ID, "name": creator.Name},
	})
}

// GetPost returns a single post. Reads are public: no ownership check and no
// side effects.
func (f *FeedController) GetPost(ctx *gin.Context) {
	var post models.Post
	if err := f.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost overwrites title, content and image of a post owned by the
// acting user. The effective image is a newly uploaded file if present,
// otherwise the client's record of the current path in the "image" field.
// Replacing the image deletes the previous file best-effort.
func (f *FeedController) UpdatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(ctx.PostForm("title")))
	content := utils.Sanitize(strings.TrimSpace(ctx.PostForm("content")))
	if msg, ok := validatePostFields(title, content); !ok {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42212, msg)
		return
	}

	imageURL, stored, err := f.storeUploadedImage(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to store image")
		return
	}
	if !stored {
		imageURL = strings.TrimSpace(ctx.PostForm("image"))
	}
	if imageURL == "" {
		utils.Error(ctx, http.StatusUnprocessableEntity, 42213, "no image provided")
		return
	}

	var post models.Post
	if err := f.db.Preload("Creator").First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40411, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to load post")
		return
	}

	if post.CreatorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40310, "you can only update your own posts")
		return
	}

	if imageURL != post.ImageURL {
		f.images.Delete(post.ImageURL)
	}

	post.Title = title
	post.Content = content
	post.ImageURL = imageURL
	if err := f.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to update post")
		return
	}

	f.events.Emit(realtime.Message{Channel: "posts", Action: "update", Post: post})
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post owned by the acting user together with its image
// file. Ownership is checked against the raw CreatorID, so no creator load
// is needed. Deleting the row also removes it from the owner's post list,
// which is the creator_id relation itself.
func (f *FeedController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	var post models.Post
	if err := f.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50019, "failed to load post")
		return
	}

	if post.CreatorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40311, "you can only delete your own posts")
		return
	}

	f.images.Delete(post.ImageURL)

	if err := f.db.Delete(&models.Post{}, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to delete post")
		return
	}

	f.events.Emit(realtime.Message{Channel: "posts", Action: "delete", Post: post.ID})
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// storeUploadedImage reads the "image" multipart field. A missing part and a
// disallowed MIME type both present as "not stored" rather than an error:
// the upload contract drops unacceptable files silently.
func (f *FeedController) storeUploadedImage(ctx *gin.Context) (string, bool, error) {
	header, err := ctx.FormFile("image")
	if err != nil {
		return "", false, nil
	}
	file, err := header.Open()
	if err != nil {
		return "", false, err
	}
	defer file.Close()
	return f.images.Store(file, header.Header.Get("Content-Type"), header.Filename)
}

func validatePostFields(title, content string) (string, bool) {
	if len([]rune(title)) < 5 {
		return "title must be at least 5 characters", false
	}
	if len([]rune(content)) < 5 {
		return "content must be at least 5 characters", false
	}
	return "", true
}

func parseFeedPagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := defaultFeedPageSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
