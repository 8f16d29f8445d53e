package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"surplus-saver-api/internal/clock"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts, authentication checks and the balance ledger.
type UserService struct {
	repo  repository.UserRepository
	clock clock.Clock
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, clk clock.Clock) *UserService {
	return &UserService{
		repo:  repo,
		clock: clk,
	}
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     model.Role
	Balance  int64
}

// Register creates a new account with a hashed password and, when an
// opening balance is given, a matching deposit ledger entry.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return model.User{}, fmt.Errorf("%w: name, email, phone and password are required", model.ErrInvalidArgument)
	}
	if !in.Role.IsValid() {
		return model.User{}, fmt.Errorf("%w: role must be 'store' or 'customer'", model.ErrInvalidArgument)
	}
	if in.Balance < 0 {
		return model.User{}, fmt.Errorf("%w: balance cannot be negative", model.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    s.clock.Now(),
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context) error {
		if taken, err := s.repo.EmailExists(ctx, user.Email, 0); err != nil {
			return err
		} else if taken {
			return model.ErrEmailTaken
		}
		if taken, err := s.repo.PhoneExists(ctx, user.Phone, 0); err != nil {
			return err
		} else if taken {
			return model.ErrPhoneTaken
		}

		id, err := s.repo.CreateUser(ctx, user)
		if err != nil {
			return err
		}
		user.ID = id

		if in.Balance > 0 {
			entry := model.LedgerEntry{
				UserID:    id,
				Amount:    in.Balance,
				Kind:      model.LedgerDeposit,
				CreatedAt: user.CreatedAt,
			}
			if err := s.repo.ApplyLedgerEntry(ctx, entry); err != nil {
				return err
			}
			user.Balance = in.Balance
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	log.Printf("[UserService] Registered user id=%d role=%s", user.ID, user.Role)
	return user, nil
}

// Authenticate verifies email+password and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.User{}, model.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the account by id.
func (s *UserService) Get(ctx context.Context, userID int64) (model.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of the update.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in model.UserUpdate) (model.User, error) {
	if in.IsEmpty() {
		return model.User{}, fmt.Errorf("%w: at least one field must be provided to update", model.ErrInvalidArgument)
	}

	var updated model.User
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if in.Email != nil && strings.ToLower(*in.Email) != user.Email {
			email := strings.ToLower(*in.Email)
			if taken, err := s.repo.EmailExists(ctx, email, userID); err != nil {
				return err
			} else if taken {
				return model.ErrEmailTaken
			}
			user.Email = email
		}
		if in.Phone != nil && *in.Phone != user.Phone {
			if taken, err := s.repo.PhoneExists(ctx, *in.Phone, userID); err != nil {
				return err
			} else if taken {
				return model.ErrPhoneTaken
			}
			user.Phone = *in.Phone
		}
		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.PasswordHash = string(hash)
		}

		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return updated, nil
}

// Deposit credits the user's balance through a ledger entry.
func (s *UserService) Deposit(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: deposit amount must be positive", model.ErrInvalidArgument)
	}

	entry := model.LedgerEntry{
		UserID:    userID,
		Amount:    amount,
		Kind:      model.LedgerDeposit,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.ApplyLedgerEntry(ctx, entry); err != nil {
		return 0, err
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}

	log.Printf("[UserService] User %d deposited %d, new balance %d", userID, amount, balance)
	return balance, nil
}

// Balance returns the user's current balance.
func (s *UserService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Ledger returns the user's ledger entries, newest first.
func (s *UserService) Ledger(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	return s.repo.ListLedgerEntries(ctx, userID)
}
