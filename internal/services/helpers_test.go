package services

import (
	"context"
	"strings"
	"testing"

	"redvibe/internal/config"
	"redvibe/internal/db"
	"redvibe/internal/models"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, email string) *models.User {
	t.Helper()
	u := models.User{FullName: "Test " + email, Email: email, Password: "x"}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &u
}

func acceptedMedia(path string) Media {
	return Media{Name: path, Ext: ".jpg", Kind: MediaImage, Path: path, accepted: true}
}

func createTestPost(t *testing.T, repo *PostRepository, creatorID uint, path string) *models.Post {
	t.Helper()
	p, err := repo.CreatePost(context.Background(), creatorID, acceptedMedia(path), "post "+path)
	if err != nil {
		t.Fatalf("create post %s: %v", path, err)
	}
	return p
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
