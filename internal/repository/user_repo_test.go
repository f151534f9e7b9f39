package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/vivah_server/internal/model"
	"github.com/qs3c/vivah_server/internal/testutil"
)

func TestUserRepository_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	created := testutil.TestUser(t, db, testutil.WithName("Asha"))

	found, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Asha", found.DisplayName)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 99999)
	assert.Error(t, err)
}

func TestUserRepository_GetByExternalID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	created := testutil.TestUser(t, db)

	found, err := repo.GetByExternalID(context.Background(), created.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestUserRepository_GetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	u1 := testutil.TestUser(t, db)
	u2 := testutil.TestUser(t, db)

	users, err := repo.GetByIDs(context.Background(), []int64{u1.ID, u2.ID, 99999})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, u1.DisplayName, users[u1.ID].DisplayName)

	empty, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db)

	err := repo.UpdateFields(context.Background(), user.ID, map[string]interface{}{
		"city":           "Mumbai",
		"notify_matches": false,
	})
	require.NoError(t, err)

	found, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", found.City)
	assert.False(t, found.NotifyMatches)
}

func TestUserRepository_Discover_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	viewer := testutil.TestUser(t, db, testutil.WithGender("male"))
	match := testutil.TestUser(t, db, testutil.WithGender("female"), testutil.WithCity("Pune"), testutil.WithReligion("hindu"))
	testutil.TestUser(t, db, testutil.WithGender("female"), testutil.WithCity("Delhi"))
	testutil.TestUser(t, db, testutil.WithGender("male"), testutil.WithCity("Pune"))
	testutil.TestUser(t, db, testutil.WithGender("female"), testutil.WithCity("Pune"), testutil.WithHidden())

	users, total, err := repo.Discover(ctx, viewer.ID, DiscoverFilter{Gender: "female", City: "Pune", Religion: "hindu"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, match.ID, users[0].ID)
}

func TestUserRepository_Discover_ExcludesSelfAndSwiped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	viewer := testutil.TestUser(t, db)
	liked := testutil.TestUser(t, db)
	passed := testutil.TestUser(t, db)
	viewed := testutil.TestUser(t, db)
	fresh := testutil.TestUser(t, db)

	testutil.TestInteraction(t, db, viewer.ID, liked.ID, model.KindLike)
	testutil.TestInteraction(t, db, viewer.ID, passed.ID, model.KindPass)
	testutil.TestInteraction(t, db, viewer.ID, viewed.ID, model.KindView)

	users, total, err := repo.Discover(ctx, viewer.ID, DiscoverFilter{ExcludeSwipe: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	ids := []int64{}
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []int64{viewed.ID, fresh.ID}, ids)
}

func TestUserRepository_Discover_AgeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	viewer := testutil.TestUser(t, db)
	young := testutil.TestUser(t, db, testutil.WithBirthDate(2002, time.January, 1))
	testutil.TestUser(t, db, testutil.WithBirthDate(1980, time.January, 1))

	after := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	users, total, err := repo.Discover(ctx, viewer.ID, DiscoverFilter{BornAfter: &after}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, young.ID, users[0].ID)
}
