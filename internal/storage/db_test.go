package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// UserTestSuite provides a test suite for user operations
type UserTestSuite struct {
	suite.Suite
	db  *DB
	ctx context.Context
}

// SetupTest runs before each test
func (suite *UserTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *UserTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *UserTestSuite) TestCreateUser() {
	hash, err := auth.NewHasher(bcrypt.MinCost).Hash("pw1")
	require.NoError(suite.T(), err)

	user, err := suite.db.CreateUser(suite.ctx, "alice", "a@x.com", hash)
	require.NoError(suite.T(), err)

	assert.Positive(suite.T(), user.ID)
	assert.Equal(suite.T(), "alice", user.Username)
	assert.Equal(suite.T(), "a@x.com", user.Email)
	assert.Equal(suite.T(), hash, user.PasswordHash)
}

func (suite *UserTestSuite) TestCreateUserDuplicateUsername() {
	_, err := suite.db.CreateUser(suite.ctx, "alice", "a@x.com", "h1")
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateUser(suite.ctx, "alice", "b@x.com", "h2")
	assert.ErrorIs(suite.T(), err, ErrUniqueViolation)
	assert.NotErrorIs(suite.T(), err, ErrStorage)

	// Existing row untouched
	u, err := suite.db.GetUserByUsername(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "a@x.com", u.Email)
	assert.Equal(suite.T(), "h1", u.PasswordHash)
}

func (suite *UserTestSuite) TestCreateUserDuplicateEmail() {
	_, err := suite.db.CreateUser(suite.ctx, "alice", "a@x.com", "h1")
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateUser(suite.ctx, "bob", "a@x.com", "h2")
	assert.ErrorIs(suite.T(), err, ErrUniqueViolation)

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *UserTestSuite) TestGetUserByUsernameAbsent() {
	u, err := suite.db.GetUserByUsername(suite.ctx, "ghost")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), u)
}

func (suite *UserTestSuite) TestGetUserByIDNotFound() {
	_, err := suite.db.GetUserByID(suite.ctx, 999)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *UserTestSuite) TestUpdateUserEmail() {
	created, err := suite.db.CreateUser(suite.ctx, "alice", "a@x.com", "h")
	require.NoError(suite.T(), err)

	updated, err := suite.db.UpdateUserEmail(suite.ctx, "alice", "new@x.com")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), created.ID, updated.ID)
	assert.Equal(suite.T(), "new@x.com", updated.Email)
}

func (suite *UserTestSuite) TestUpdateUserEmailNotFound() {
	_, err := suite.db.UpdateUserEmail(suite.ctx, "ghost", "g@x.com")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *UserTestSuite) TestUpdateUserEmailCollision() {
	_, err := suite.db.CreateUser(suite.ctx, "alice", "a@x.com", "h")
	require.NoError(suite.T(), err)
	_, err = suite.db.CreateUser(suite.ctx, "bob", "b@x.com", "h")
	require.NoError(suite.T(), err)

	_, err = suite.db.UpdateUserEmail(suite.ctx, "bob", "a@x.com")
	assert.ErrorIs(suite.T(), err, ErrUniqueViolation)
}

func (suite *UserTestSuite) TestDeleteUser() {
	_, err := suite.db.CreateUser(suite.ctx, "alice", "a@x.com", "h")
	require.NoError(suite.T(), err)

	removed, err := suite.db.DeleteUser(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), removed, "expected one row removed")

	removed, err = suite.db.DeleteUser(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), removed, "expected no row removed on second delete")

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), count)
}

// EntryTestSuite provides a test suite for transaction and goal operations
type EntryTestSuite struct {
	suite.Suite
	db   *DB
	ctx  context.Context
	user *models.User
}

// SetupTest runs before each test
func (suite *EntryTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()

	user, err := suite.db.CreateUser(suite.ctx, "testuser", "test@x.com", "hash")
	require.NoError(suite.T(), err, "failed to create test user")
	suite.user = user
}

// TearDownTest runs after each test
func (suite *EntryTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *EntryTestSuite) TestCreateTransaction() {
	tx, err := suite.db.CreateTransaction(suite.ctx, suite.user.ID, "food", -10.50, "2025-03-01", "Lunch")
	require.NoError(suite.T(), err)
	assert.Positive(suite.T(), tx.ID)
	assert.Equal(suite.T(), suite.user.ID, tx.UserID)
	assert.False(suite.T(), tx.IsIncome())
}

func (suite *EntryTestSuite) TestGetAllUserTransactions() {
	entries := []struct {
		txType      string
		amount      float64
		date        string
		description string
	}{
		{"transport", -20.00, "2025-03-02", "Bus"},
		{"salary", 1500.00, "2025-03-01", "March pay"},
		{"food", -5.00, "2025-03-03", ""},
	}

	for _, e := range entries {
		_, err := suite.db.CreateTransaction(suite.ctx, suite.user.ID, e.txType, e.amount, e.date, e.description)
		require.NoError(suite.T(), err, "failed to create transaction: %s", e.txType)
	}

	// Another user's entry must not leak into the listing
	other, err := suite.db.CreateUser(suite.ctx, "other", "o@x.com", "hash")
	require.NoError(suite.T(), err)
	_, err = suite.db.CreateTransaction(suite.ctx, other.ID, "food", -1, "2025-03-01", "")
	require.NoError(suite.T(), err)

	result, err := suite.db.GetAllUserTransactions(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result, 3)

	// Insertion order
	for i, e := range entries {
		assert.Equal(suite.T(), e.txType, result[i].Type)
		assert.Equal(suite.T(), e.amount, result[i].Amount)
		assert.Equal(suite.T(), e.date, result[i].Date)
		assert.Equal(suite.T(), e.description, result[i].Description)
	}
	assert.True(suite.T(), result[1].IsIncome())
}

func (suite *EntryTestSuite) TestGetAllUserTransactionsEmpty() {
	result, err := suite.db.GetAllUserTransactions(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
}

func (suite *EntryTestSuite) TestCreateGoalAssignsCreatedDate() {
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	suite.db.now = func() time.Time { return fixed }

	goal, err := suite.db.CreateGoal(suite.ctx, suite.user.ID, 500, "Holiday", "2025-03-01", "2025-08-01", nil)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), fixed.Equal(goal.CreatedDate))
	assert.Nil(suite.T(), goal.UpdatedDate)

	stored, err := suite.db.GetGoal(suite.ctx, goal.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), fixed.Equal(stored.CreatedDate), "stored created_date %v", stored.CreatedDate)
	assert.Nil(suite.T(), stored.UpdatedDate, "updated_date should be NULL until an update")
	assert.Nil(suite.T(), stored.ParentGoalID)
	assert.Equal(suite.T(), "Holiday", stored.Name)
	assert.Equal(suite.T(), 500.0, stored.Amount)
}

func (suite *EntryTestSuite) TestCreateSubGoal() {
	parent, err := suite.db.CreateGoal(suite.ctx, suite.user.ID, 1000, "House", "2025-01-01", "2026-01-01", nil)
	require.NoError(suite.T(), err)

	child, err := suite.db.CreateGoal(suite.ctx, suite.user.ID, 200, "Deposit", "2025-01-01", "2025-06-01", &parent.ID)
	require.NoError(suite.T(), err)

	goals, err := suite.db.GetUserGoals(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), goals, 2)
	assert.Equal(suite.T(), parent.ID, goals[0].ID)
	require.NotNil(suite.T(), goals[1].ParentGoalID)
	assert.Equal(suite.T(), parent.ID, *goals[1].ParentGoalID)
	assert.Equal(suite.T(), child.ID, goals[1].ID)
}

func (suite *EntryTestSuite) TestUpdateGoalSetsUpdatedDate() {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	suite.db.now = func() time.Time { return created }
	goal, err := suite.db.CreateGoal(suite.ctx, suite.user.ID, 500, "Holiday", "2025-03-01", "2025-08-01", nil)
	require.NoError(suite.T(), err)

	updatedAt := created.Add(48 * time.Hour)
	suite.db.now = func() time.Time { return updatedAt }
	goal.Amount = 750
	updated, err := suite.db.UpdateGoal(suite.ctx, goal)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 750.0, updated.Amount)
	assert.True(suite.T(), created.Equal(updated.CreatedDate), "created_date must not move")
	require.NotNil(suite.T(), updated.UpdatedDate)
	assert.True(suite.T(), updatedAt.Equal(*updated.UpdatedDate))
}

func (suite *EntryTestSuite) TestUpdateGoalNotFound() {
	_, err := suite.db.UpdateGoal(suite.ctx, &models.Goal{ID: 42, Name: "x", StartDate: "2025-01-01", EndDate: "2025-01-02"})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *EntryTestSuite) TestGetGoalNotFound() {
	_, err := suite.db.GetGoal(suite.ctx, 42)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := NewDB(path)
	require.NoError(t, err)
	_, err = db.CreateUser(ctx, "alice", "a@x.com", "h")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Migrations are idempotent across restarts
	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a@x.com", u.Email)
}

func TestNewDB_ConcurrentOpen(t *testing.T) {
	dir := t.TempDir()

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := NewDB(filepath.Join(dir, fmt.Sprintf("db%d.db", i)))
			if err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = db.UserCount(context.Background())
			db.Close()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "database %d", i)
	}
}

func TestNewDB_InvalidPath(t *testing.T) {
	_, err := NewDB(t.TempDir())
	assert.Error(t, err)
}

// Test suite runners
func TestUserSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}

func TestEntrySuite(t *testing.T) {
	suite.Run(t, new(EntryTestSuite))
}
