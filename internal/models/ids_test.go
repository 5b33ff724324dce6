package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIDSetHelpers(t *testing.T) {
	t.Parallel()

	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	ids := AddToSet(nil, a)
	ids = AddToSet(ids, b)
	ids = AddToSet(ids, a)
	assert.Equal(t, []primitive.ObjectID{a, b}, ids)

	assert.True(t, ContainsID(ids, b))
	assert.False(t, ContainsID(ids, c))

	pulled := PullID(ids, a)
	assert.Equal(t, []primitive.ObjectID{b}, pulled)
	assert.Equal(t, []primitive.ObjectID{a, b}, ids, "PullID must not modify its input")

	assert.Empty(t, PullID(pulled, b))
	assert.Equal(t, pulled, PullID(pulled, c))
}

func TestCloneIDs(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, CloneIDs(nil))

	src := []primitive.ObjectID{primitive.NewObjectID()}
	dst := CloneIDs(src)
	dst[0] = primitive.NewObjectID()
	assert.NotEqual(t, src[0], dst[0])
}
