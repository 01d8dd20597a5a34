// Package account holds the business rules between submitted form values and
// the storage layer: credential hashing and verification, input-to-record
// mapping, and the duplicate-account policy.
package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/sirupsen/logrus"
)

// Store is the subset of the storage layer used by Service.
// *storage.DB satisfies it.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateTransaction(ctx context.Context, userID int64, txType string, amount float64, date, description string) (*models.Transaction, error)
	GetAllUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	CreateGoal(ctx context.Context, userID int64, amount float64, name, startDate, endDate string, parentGoalID *int64) (*models.Goal, error)
	GetUserGoals(ctx context.Context, userID int64) ([]models.Goal, error)
}

var _ Store = (*storage.DB)(nil)

// Service implements signup, login and entry recording for users.
type Service struct {
	store  Store
	hasher *auth.Hasher
	log    logrus.FieldLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs a Service. A nil logger discards log output.
func NewService(store Store, hasher *auth.Hasher, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{store: store, hasher: hasher, log: log}
}

// Signup registers a new user. A taken username or email yields ErrAlreadyExists
// without saying which one collided.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	log := s.log.WithField("username", username)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.WithError(err).Error("failed to hash password")
		return nil, ErrInternal
	}

	user, err := s.store.CreateUser(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			log.Warn("signup rejected: username or email taken")
			return nil, ErrAlreadyExists
		}
		log.WithError(err).Error("failed to create user")
		return nil, ErrInternal
	}

	log.WithField("user_id", user.ID).Info("user created")
	return user, nil
}

// Login verifies the credentials and returns the matching user. An unknown
// username and a wrong password both yield ErrInvalidCredentials after the
// same amount of hashing work.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	log := s.log.WithField("username", username)

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		log.WithError(err).Error("failed to look up user")
		return nil, ErrInternal
	}

	if user == nil {
		s.hasher.Check(password, s.fallbackHash())
		log.Warn("login failed")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		log.Warn("login failed")
		return nil, ErrInvalidCredentials
	}

	log.WithField("user_id", user.ID).Info("user logged in")
	return user, nil
}

// AddTransaction records a transaction with the amount exactly as given.
func (s *Service) AddTransaction(ctx context.Context, userID int64, txType string, amount float64, date, description string) (*models.Transaction, error) {
	txType = strings.TrimSpace(txType)
	if err := validateOwner(userID); err != nil {
		return nil, err
	}
	if txType == "" {
		return nil, fmt.Errorf("%w: transaction type is required", ErrInvalidInput)
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if _, err := parseDate(date); err != nil {
		return nil, err
	}

	t, err := s.store.CreateTransaction(ctx, userID, txType, amount, date, strings.TrimSpace(description))
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("failed to add transaction")
		return nil, ErrInternal
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": t.ID}).Info("transaction created")
	return t, nil
}

// AddExpense records money spent. The stored amount is always negative.
func (s *Service) AddExpense(ctx context.Context, userID int64, txType string, amount float64, date, description string) (*models.Transaction, error) {
	return s.AddTransaction(ctx, userID, txType, -math.Abs(amount), date, description)
}

// AddIncome records money received. The stored amount is always positive.
func (s *Service) AddIncome(ctx context.Context, userID int64, txType string, amount float64, date, description string) (*models.Transaction, error) {
	return s.AddTransaction(ctx, userID, txType, math.Abs(amount), date, description)
}

// GetAllUserTransactions lists the user's transactions in the order they were recorded.
func (s *Service) GetAllUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	if err := validateOwner(userID); err != nil {
		return nil, err
	}

	transactions, err := s.store.GetAllUserTransactions(ctx, userID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("failed to list transactions")
		return nil, ErrInternal
	}
	return transactions, nil
}

// AddGoal records a savings goal, optionally under a parent goal.
func (s *Service) AddGoal(ctx context.Context, userID int64, amount float64, name, startDate, endDate string, parentGoalID *int64) (*models.Goal, error) {
	name = strings.TrimSpace(name)
	if err := validateOwner(userID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: goal name is required", ErrInvalidInput)
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidInput, endDate, startDate)
	}
	if parentGoalID != nil && *parentGoalID <= 0 {
		return nil, fmt.Errorf("%w: parent goal id must be positive", ErrInvalidInput)
	}

	g, err := s.store.CreateGoal(ctx, userID, amount, name, startDate, endDate, parentGoalID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("failed to add goal")
		return nil, ErrInternal
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "goal_id": g.ID}).Info("goal created")
	return g, nil
}

// GetUserGoals lists the user's goals in the order they were recorded.
func (s *Service) GetUserGoals(ctx context.Context, userID int64) ([]models.Goal, error) {
	if err := validateOwner(userID); err != nil {
		return nil, err
	}

	goals, err := s.store.GetUserGoals(ctx, userID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("failed to list goals")
		return nil, ErrInternal
	}
	return goals, nil
}

// staticFallbackHash is a well-formed bcrypt hash at bcrypt.DefaultCost,
// used when a random fallback hash cannot be built.
const staticFallbackHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var randRead = rand.Read

// fallbackHash is compared against when the username is unknown, so a miss
// costs one bcrypt comparison like a hit does.
func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = staticFallbackHash

		buf := make([]byte, 16)
		if _, err := randRead(buf); err != nil {
			s.log.WithError(err).Error("failed to read random fallback password")
			return
		}
		h, err := s.hasher.Hash(hex.EncodeToString(buf))
		if err != nil {
			s.log.WithError(err).Error("failed to build fallback hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func validateOwner(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}
	return nil
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: amount must be a finite number", ErrInvalidInput)
	}
	return nil
}

func parseDate(date string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not in YYYY-MM-DD form", ErrInvalidInput, date)
	}
	return t, nil
}
