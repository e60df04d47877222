package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleMembership(t *testing.T) {
	tests := []struct {
		name        string
		likes       int
		likedBy     []string
		userID      string
		wantLikes   int
		wantLikedBy []string
		wantLiked   bool
	}{
		{
			name:        "first like",
			likes:       0,
			likedBy:     nil,
			userID:      "u1",
			wantLikes:   1,
			wantLikedBy: []string{"u1"},
			wantLiked:   true,
		},
		{
			name:        "like appended",
			likes:       2,
			likedBy:     []string{"u2", "u3"},
			userID:      "u1",
			wantLikes:   3,
			wantLikedBy: []string{"u2", "u3", "u1"},
			wantLiked:   true,
		},
		{
			name:        "unlike",
			likes:       2,
			likedBy:     []string{"u1", "u2"},
			userID:      "u1",
			wantLikes:   1,
			wantLikedBy: []string{"u2"},
			wantLiked:   false,
		},
		{
			name:        "unlike never goes negative",
			likes:       0,
			likedBy:     []string{"u1"},
			userID:      "u1",
			wantLikes:   0,
			wantLikedBy: []string{},
			wantLiked:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			likes, likedBy, liked := toggleMembership(tt.likes, tt.likedBy, tt.userID)

			assert.Equal(t, tt.wantLikes, likes)
			assert.Equal(t, tt.wantLikedBy, likedBy)
			assert.Equal(t, tt.wantLiked, liked)
		})
	}
}
