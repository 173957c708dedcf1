package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/beregond/contactboard/internal/config"
	"github.com/beregond/contactboard/internal/sec"
	"github.com/beregond/contactboard/internal/storage"
)

const seedUserCount = 5

// Seed populates an empty store with a dev admin and sample data. The
// generated admin password is logged once; dev mode only.
func Seed(ctx context.Context, cfg *config.Config, logger *slog.Logger, store storage.Store) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	password := gofakeit.Password(true, true, true, false, false, 16)
	hash, err := sec.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		return err
	}
	admin, err := store.CreateUser(ctx, "admin", hash, true)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	logger.InfoContext(ctx, "seeded dev admin",
		slog.String("username", admin.Username),
		slog.String("password", password),
	)

	for range seedUserCount {
		hash, err := sec.HashPassword(gofakeit.Password(true, true, true, false, false, 12), cfg.BcryptCost)
		if err != nil {
			return err
		}
		user, err := store.CreateUser(ctx, gofakeit.Username(), hash, false)
		if err != nil {
			// fakeit may roll a name that fails validation or collides
			continue
		}
		if _, err = store.AppendMessage(ctx, &user.ID,
			gofakeit.Name(), gofakeit.Email(), gofakeit.Sentence(3), gofakeit.Paragraph(1, 2, 8, " "),
		); err != nil {
			return fmt.Errorf("failed to seed message: %w", err)
		}
	}
	// a couple of anonymous submissions too
	for range 2 {
		if _, err := store.AppendMessage(ctx, nil,
			gofakeit.Name(), gofakeit.Email(), gofakeit.Sentence(3), gofakeit.Paragraph(1, 2, 8, " "),
		); err != nil {
			return fmt.Errorf("failed to seed message: %w", err)
		}
	}
	return nil
}
