package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pageza/recipebook/backend/internal/types"
)

const favoritesFile = "favorites.json"

// Favorites is the local set of favorite recipe ids, stored as a JSON array.
// Ids of deleted recipes are allowed to linger.
type Favorites struct {
	fs   afero.Fs
	path string
	ids  []uuid.UUID
	set  map[uuid.UUID]struct{}
}

// LoadFavorites reads the favorites file in dir; a missing or unreadable list starts empty
func LoadFavorites(fs afero.Fs, dir string) (*Favorites, error) {
	f := &Favorites{
		fs:   fs,
		path: filepath.Join(dir, favoritesFile),
		set:  map[uuid.UUID]struct{}{},
	}

	data, err := afero.ReadFile(fs, f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return f, nil
	}
	for _, id := range ids {
		if _, dup := f.set[id]; dup {
			continue
		}
		f.set[id] = struct{}{}
		f.ids = append(f.ids, id)
	}
	return f, nil
}

// Toggle flips membership of id and writes the list through. It returns the new membership.
func (f *Favorites) Toggle(id uuid.UUID) (bool, error) {
	var member bool
	if _, ok := f.set[id]; ok {
		delete(f.set, id)
		kept := f.ids[:0]
		for _, existing := range f.ids {
			if existing != id {
				kept = append(kept, existing)
			}
		}
		f.ids = kept
	} else {
		f.set[id] = struct{}{}
		f.ids = append(f.ids, id)
		member = true
	}
	return member, f.save()
}

// IsFavorite reports whether id is in the set
func (f *Favorites) IsFavorite(id uuid.UUID) bool {
	_, ok := f.set[id]
	return ok
}

// IDs returns the favorites in the order they were added
func (f *Favorites) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(f.ids))
	copy(out, f.ids)
	return out
}

// Len is the number of favorites
func (f *Favorites) Len() int { return len(f.ids) }

// Select keeps the favorite recipes, preserving their order
func (f *Favorites) Select(recipes []types.RecipeResponse) []types.RecipeResponse {
	out := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		if f.IsFavorite(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

func (f *Favorites) save() error {
	ids := f.ids
	if ids == nil {
		ids = []uuid.UUID{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := afero.WriteFile(f.fs, f.path, data, 0o600); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}
