package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/shared"
)

func TestSearchRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSearchRepository(db)
			if err := repo.Create(models.NewSearchRecord("", models.NewQueryResult(nil))); !errors.Is(err, models.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			repo := NewSearchRepository(db)
			if err := repo.Create(models.NewSearchRecord("q", models.NewQueryResult(nil))); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSearchRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("Empty", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			searches, err := NewSearchRepository(db).List(10)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(searches) != 0 {
				t.Errorf("expected no searches, got %d", len(searches))
			}
		})
	})
}

func TestDownloadRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewDownloadRepository(db)
			download := models.NewDownloadRecord(models.JobMode("upload"), "https://youtube.com/watch?v=a", "song")

			if err := repo.Create(download); !errors.Is(err, models.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	})

	t.Run("Finish", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewDownloadRepository(db)

			err := repo.Finish("nonexistent-id", models.StatusCompleted, "")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("AlreadyFinished", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewDownloadRepository(db)
			download := models.NewDownloadRecord(models.ModeDownload, "https://youtube.com/watch?v=a", "song")
			if err := repo.Create(download); err != nil {
				t.Fatalf("failed to create download: %v", err)
			}
			if err := repo.Finish(download.ID(), models.StatusCompleted, ""); err != nil {
				t.Fatalf("failed to finish download: %v", err)
			}

			if err := repo.Finish(download.ID(), models.StatusFailed, "late"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for finished job, got %v", err)
			}
		})

		t.Run("NonTerminalStatus", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			err := NewDownloadRepository(db).Finish("id", models.StatusRunning, "")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			_, err := NewDownloadRepository(db).Get("nonexistent-id")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})
}
