package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipebook/backend/internal/model"
	"github.com/pageza/recipebook/backend/internal/service"
	"github.com/pageza/recipebook/backend/internal/testhelpers"
	"github.com/pageza/recipebook/backend/internal/types"
)

const imageDir = "/srv/images"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// fakeClock hands out strictly increasing timestamps
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type recipeFixture struct {
	svc   *service.RecipeService
	db    *gorm.DB
	fs    afero.Fs
	clock *fakeClock
}

func newFixture(t *testing.T, db *gorm.DB) *recipeFixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	images := service.NewLocalImageStore(fs, imageDir, testhelpers.Logger())
	svc := service.NewRecipeService(
		service.NewGormRecipeRepository(db), images, testhelpers.Logger(),
		service.WithClock(clock.Now), service.WithMaxImageBytes(1024),
	)
	return &recipeFixture{svc: svc, db: db, fs: fs, clock: clock}
}

func pngUpload(name string) *types.ImageUpload {
	return &types.ImageUpload{Filename: name, Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}
}

func (f *recipeFixture) fileExists(t *testing.T, ref string) bool {
	t.Helper()
	ok, err := afero.Exists(f.fs, filepath.Join(imageDir, strings.TrimPrefix(ref, service.ImageRefPrefix)))
	require.NoError(t, err)
	return ok
}

func (f *recipeFixture) countFiles(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, imageDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestCreateDefaultsCategory(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "Tea"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, model.CategoryOther, created.Category)
	assert.Equal(t, owner, created.UserID)
	assert.Empty(t, created.ImageURL)

	fetched, err := f.svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tea", fetched.Title)
	assert.Equal(t, model.CategoryOther, fetched.Category)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
}

func TestCreateNormalizesCategory(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))

	created, err := f.svc.Create(context.Background(), uuid.New(), types.RecipeInput{Title: "Pancakes", Category: "breakfast"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryBreakfast, created.Category)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		input types.RecipeInput
		field string
	}{
		{"empty title", types.RecipeInput{Title: ""}, "title"},
		{"blank title", types.RecipeInput{Title: "   "}, "title"},
		{"long title", types.RecipeInput{Title: strings.Repeat("a", model.MaxTitleLength+1)}, "title"},
		{"long description", types.RecipeInput{Title: "ok", Description: strings.Repeat("d", model.MaxDescriptionLength+1)}, "description"},
		{"unknown category", types.RecipeInput{Title: "ok", Category: "Brunch"}, "category"},
		{"not an image", types.RecipeInput{Title: "ok", Image: &types.ImageUpload{Filename: "a.png", Content: strings.NewReader("plain text")}}, "image"},
		{"empty image", types.RecipeInput{Title: "ok", Image: &types.ImageUpload{Filename: "a.png", Content: strings.NewReader("")}}, "image"},
		{"oversize image", types.RecipeInput{Title: "ok", Image: &types.ImageUpload{Filename: "a.png", Content: bytes.NewReader(append(pngHeader, make([]byte, 2048)...))}}, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testhelpers.SetupTestDatabase(t))
			owner := uuid.New()

			_, err := f.svc.Create(context.Background(), owner, tt.input)
			require.ErrorIs(t, err, service.ErrValidation)

			var vErr *service.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)

			list, err := f.svc.ListMine(context.Background(), owner)
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Zero(t, f.countFiles(t))
		})
	}
}

func TestCreateStoresImage(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))

	created, err := f.svc.Create(context.Background(), uuid.New(), types.RecipeInput{Title: "Cake", Image: pngUpload("photo.png")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(created.ImageURL, service.ImageRefPrefix))
	assert.True(t, strings.HasSuffix(created.ImageURL, ".png"))
	assert.True(t, f.fileExists(t, created.ImageURL))

	data, err := afero.ReadFile(f.fs, filepath.Join(imageDir, strings.TrimPrefix(created.ImageURL, service.ImageRefPrefix)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	owner := uuid.New()

	first, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "T1"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "T2"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, uuid.New(), types.RecipeInput{Title: "someone else"})
	require.NoError(t, err)

	list, err := f.svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	third, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "T3"})
	require.NoError(t, err)
	list, err = f.svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, third.ID, list[0].ID)
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	r, err := f.svc.Create(ctx, alice, types.RecipeInput{Title: "Secret stew"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, bob, r.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = f.svc.Update(ctx, bob, r.ID, types.RecipeInput{Title: "Stolen"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = f.svc.Delete(ctx, bob, r.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// A missing id looks exactly like someone else's id
	_, err = f.svc.Get(ctx, bob, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	bobs, err := f.svc.ListMine(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	still, err := f.svc.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret stew", still.Title)
}

func TestUpdateIsFullReplace(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	owner := uuid.New()

	r, err := f.svc.Create(ctx, owner, types.RecipeInput{
		Title: "Omelette", Description: "fluffy", Ingredients: "eggs", Steps: "whisk", Category: "Breakfast",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(ctx, owner, r.ID, types.RecipeInput{Title: "Plain omelette"}))

	got, err := f.svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plain omelette", got.Title)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.Ingredients)
	assert.Empty(t, got.Steps)
	assert.Equal(t, model.CategoryOther, got.Category)
	assert.Equal(t, owner, got.UserID)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
}

func TestUpdateImageHandling(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	owner := uuid.New()

	r, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "Pie", Image: pngUpload("pie.png")})
	require.NoError(t, err)
	original := r.ImageURL

	// No new image keeps the reference
	require.NoError(t, f.svc.Update(ctx, owner, r.ID, types.RecipeInput{Title: "Apple pie"}))
	got, err := f.svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, original, got.ImageURL)

	// A new image replaces it and the old file is left behind
	require.NoError(t, f.svc.Update(ctx, owner, r.ID, types.RecipeInput{Title: "Apple pie", Image: pngUpload("better.jpg")}))
	got, err = f.svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.NotEqual(t, original, got.ImageURL)
	assert.True(t, strings.HasSuffix(got.ImageURL, ".jpg"))
	assert.True(t, f.fileExists(t, got.ImageURL))
	assert.True(t, f.fileExists(t, original))
}

func TestUpdateValidationKeepsRecord(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	owner := uuid.New()

	r, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "Salad", Category: "Lunch"})
	require.NoError(t, err)

	err = f.svc.Update(ctx, owner, r.ID, types.RecipeInput{Title: "", Image: pngUpload("x.png")})
	require.ErrorIs(t, err, service.ErrValidation)

	got, err := f.svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salad", got.Title)
	assert.Equal(t, model.CategoryLunch, got.Category)
	assert.Zero(t, f.countFiles(t))
}

func TestDeleteKeepsImageFile(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()
	owner := uuid.New()

	r, err := f.svc.Create(ctx, owner, types.RecipeInput{Title: "Bread", Image: pngUpload("bread.png")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, owner, r.ID))

	_, err = f.svc.Get(ctx, owner, r.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, owner, r.ID), service.ErrNotFound)
	assert.True(t, f.fileExists(t, r.ImageURL))
}

func TestZeroOwnerIsUnauthenticated(t *testing.T) {
	f := newFixture(t, testhelpers.SetupTestDatabase(t))
	ctx := context.Background()

	_, err := f.svc.ListMine(ctx, uuid.Nil)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = f.svc.Get(ctx, uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = f.svc.Create(ctx, uuid.Nil, types.RecipeInput{Title: "x"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.ErrorIs(t, f.svc.Update(ctx, uuid.Nil, uuid.New(), types.RecipeInput{Title: "x"}), service.ErrUnauthenticated)
	assert.ErrorIs(t, f.svc.Delete(ctx, uuid.Nil, uuid.New()), service.ErrUnauthenticated)
}

// failingRepo rejects every write so the compensating image removal can be observed
type failingRepo struct {
	service.RecipeRepository
}

var errDisk = errors.New("disk full")

func (failingRepo) Create(context.Context, *model.Recipe) error { return errDisk }

func (failingRepo) Update(context.Context, uuid.UUID, uuid.UUID, service.RecipeFields, string) error {
	return errDisk
}

func TestFailedWriteRemovesNewImage(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	fs := afero.NewMemMapFs()
	repo := service.NewGormRecipeRepository(db)
	svc := service.NewRecipeService(failingRepo{repo}, service.NewLocalImageStore(fs, imageDir, testhelpers.Logger()), testhelpers.Logger())
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.Create(ctx, owner, types.RecipeInput{Title: "Ghost", Image: pngUpload("ghost.png")})
	require.ErrorIs(t, err, errDisk)
	entries, err := afero.ReadDir(fs, imageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Update: row exists but the write fails
	existing := &model.Recipe{UserID: owner, Title: "Real", Category: model.CategoryOther, ImageURL: "/images/old.png"}
	require.NoError(t, repo.Create(ctx, existing))
	err = svc.Update(ctx, owner, existing.ID, types.RecipeInput{Title: "Real", Image: pngUpload("new.png")})
	require.ErrorIs(t, err, errDisk)
	entries, err = afero.ReadDir(fs, imageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseRecipeID(t *testing.T) {
	id := uuid.New()
	got, err := service.ParseRecipeID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = service.ParseRecipeID("42")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRepositoryOnPostgres(t *testing.T) {
	f := newFixture(t, testhelpers.SetupPostgres(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	older, err := f.svc.Create(ctx, alice, types.RecipeInput{Title: "Older"})
	require.NoError(t, err)
	newer, err := f.svc.Create(ctx, alice, types.RecipeInput{Title: "Newer", Category: "Snack"})
	require.NoError(t, err)

	list, err := f.svc.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = f.svc.Get(ctx, bob, older.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, f.svc.Update(ctx, alice, older.ID, types.RecipeInput{Title: "Older, edited"}))
	got, err := f.svc.Get(ctx, alice, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Older, edited", got.Title)

	require.NoError(t, f.svc.Delete(ctx, alice, newer.ID))
	_, err = f.svc.Get(ctx, alice, newer.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
