package mongostore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/GTDGit/devhub_api/internal/repository"
)

func TestMapErr(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	other := errors.New("socket closed")

	assert.ErrorIs(t, mapErr(mongo.ErrNoDocuments), repository.ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("find: %w", mongo.ErrNoDocuments)), repository.ErrNotFound)
	assert.ErrorIs(t, mapErr(dup), repository.ErrDuplicate)
	assert.Equal(t, other, mapErr(other))
	assert.NoError(t, mapErr(nil))
}

func TestGroupPipeline(t *testing.T) {
	p := groupPipeline("department")
	assert.Len(t, p, 2)
	assert.Equal(t, "$group", p[0][0].Key)
	group := p[0][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "_id", Value: "$department"}, group[0])
}

func TestRecentOptions(t *testing.T) {
	opts := recentOptions(5)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, opts.Sort)
}

func TestNowTruncatesToMillis(t *testing.T) {
	assert.Zero(t, now().Nanosecond()%1e6)
}
