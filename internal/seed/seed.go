package seed

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

const demoPassword = "password123"

// Demo is what SeedData created, so callers can print usable IDs.
type Demo struct {
	User     *repository.User
	Card     *repository.BusinessCard
	OldCard  *repository.BusinessCard
	QRCode   *repository.CustomQRCode
	Existing bool
}

// SeedData creates the demo account with one active card, one deactivated
// card and one active custom QR code. It does nothing if the account
// already exists.
func SeedData(ctx context.Context, repos *repository.Repositories, demoEmail string) (*Demo, error) {
	demoEmail = strings.ToLower(strings.TrimSpace(demoEmail))

	existing, err := repos.UserRepo.FindByEmail(ctx, demoEmail)
	if err != nil {
		return nil, fmt.Errorf("seed: find demo user: %w", err)
	}
	if existing != nil {
		log.Println("[Seed] Demo account already exists, skipping...")
		return &Demo{User: existing, Existing: true}, nil
	}

	log.Println("[Seed] 🌱 Creating demo account...")

	password, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed: hash password: %w", err)
	}
	user := &repository.User{
		Email:    demoEmail,
		Password: string(password),
		Name:     "Demo User",
		IsActive: true,
	}
	if err := repos.UserRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("seed: create demo user: %w", err)
	}

	company := "ShareMyCard"
	title := "Product Demo"
	card := &repository.BusinessCard{
		UserID:      user.ID,
		FirstName:   "Demo",
		LastName:    "User",
		CompanyName: &company,
		JobTitle:    &title,
		IsActive:    true,
	}
	if err := repos.SourceRepo.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("seed: create card: %w", err)
	}

	oldCard := &repository.BusinessCard{
		UserID:    user.ID,
		FirstName: "Demo",
		LastName:  "User (old)",
		IsActive:  false,
	}
	if err := repos.SourceRepo.CreateCard(ctx, oldCard); err != nil {
		return nil, fmt.Errorf("seed: create deactivated card: %w", err)
	}

	qrTitle := "Trade show booth"
	qr := &repository.CustomQRCode{
		UserID: user.ID,
		Type:   types.QRTypeDefault,
		Title:  &qrTitle,
		Status: types.QRStatusActive,
	}
	if err := repos.SourceRepo.CreateQRCode(ctx, qr); err != nil {
		return nil, fmt.Errorf("seed: create QR code: %w", err)
	}

	log.Printf("[Seed] ✅ Demo account %s (password %q)", demoEmail, demoPassword)
	log.Printf("[Seed]    active card:      %s", card.ID)
	log.Printf("[Seed]    deactivated card: %s", oldCard.ID)
	log.Printf("[Seed]    QR code:          %s", qr.ID)

	return &Demo{User: user, Card: card, OldCard: oldCard, QRCode: qr}, nil
}
