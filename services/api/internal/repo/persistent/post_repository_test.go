package persistent

import (
	"context"
	"testing"

	"framefeed/pkg/apperr"

	"github.com/stretchr/testify/assert"
)

func TestPostRepository_GetByID_MalformedID(t *testing.T) {
	// No database: a malformed id must be answered before any query runs.
	repo := NewPostRepository(nil)

	for _, id := range []string{"not-a-uuid", "", "123", "p1'; DROP TABLE posts;--"} {
		post, err := repo.GetByID(context.Background(), id)
		assert.Nil(t, post, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound, id)
	}
}
