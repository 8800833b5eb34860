package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", CategoryOther, true},
		{"   ", CategoryOther, true},
		{"Dinner", CategoryDinner, true},
		{"dessert", CategoryDessert, true},
		{" SNACK ", CategorySnack, true},
		{"Brunch", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeCategory(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBeforeCreateAssignsID(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Recipe{}))

	r := &Recipe{UserID: uuid.New(), Title: "Tea", Category: CategoryOther}
	require.NoError(t, db.Create(r).Error)
	assert.NotEqual(t, uuid.Nil, r.ID)

	preset := uuid.New()
	r2 := &Recipe{ID: preset, UserID: r.UserID, Title: "Toast", Category: CategoryBreakfast}
	require.NoError(t, db.Create(r2).Error)
	assert.Equal(t, preset, r2.ID)

	var loaded Recipe
	require.NoError(t, db.First(&loaded, "id = ?", preset).Error)
	assert.Equal(t, "Toast", loaded.Title)
	assert.Equal(t, r.UserID, loaded.UserID)
}
