package deal

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dealspot-cloud/dealdex/internal/domain"
)

type mockCollection struct {
	updateFilter any
	updateUpdate any
	updateErr    error

	fauFilter any
	fauUpdate any
	fauOpts   []*options.FindOneAndUpdateOptions
	fauCalls  int
	fauResult *mongo.SingleResult

	findOneResult *mongo.SingleResult
	deleteResult  *mongo.DeleteResult
	deleteErr     error
	findErr       error
	count         int64
	countErr      error
}

func (m *mockCollection) UpdateOne(_ context.Context, filter any, update any, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	m.updateFilter = filter
	m.updateUpdate = update
	return &mongo.UpdateResult{}, m.updateErr
}

func (m *mockCollection) FindOne(_ context.Context, _ any, _ ...*options.FindOneOptions) *mongo.SingleResult {
	return m.findOneResult
}

func (m *mockCollection) FindOneAndUpdate(_ context.Context, filter any, update any, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	m.fauCalls++
	m.fauFilter = filter
	m.fauUpdate = update
	m.fauOpts = opts
	return m.fauResult
}

func (m *mockCollection) Find(_ context.Context, _ any, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	return nil, m.findErr
}

func (m *mockCollection) DeleteOne(_ context.Context, _ any, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return m.deleteResult, m.deleteErr
}

func (m *mockCollection) CountDocuments(_ context.Context, _ any, _ ...*options.CountOptions) (int64, error) {
	return m.count, m.countErr
}

func singleResult(t *testing.T, doc dealDocument) *mongo.SingleResult {
	t.Helper()
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func missingResult() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

// lookup finds a key in a bson.D and fails the test if it is absent.
func lookup(t *testing.T, d bson.D, key string) any {
	t.Helper()
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("key %q not found in %v", key, d)
	return nil
}

// voteStages unpacks the captured update into its two $set stages.
func voteStages(t *testing.T, update any) (voters, score bson.D) {
	t.Helper()
	pipeline, ok := update.(mongo.Pipeline)
	if !ok {
		t.Fatalf("update is %T, want a pipeline", update)
	}
	if len(pipeline) != 2 {
		t.Fatalf("pipeline has %d stages, want 2", len(pipeline))
	}
	voters = lookup(t, pipeline[0], "$set").(bson.D)
	score = lookup(t, pipeline[1], "$set").(bson.D)
	return voters, score
}

func assertAdds(t *testing.T, entry any, field, actorID string) {
	t.Helper()
	union := lookup(t, entry.(bson.D), "$setUnion").(bson.A)
	if union[0] != "$"+field {
		t.Errorf("%s union input = %v", field, union[0])
	}
	if !reflect.DeepEqual(union[1], bson.A{actorID}) {
		t.Errorf("%s union addend = %v", field, union[1])
	}
}

func assertRemoves(t *testing.T, entry any, field, actorID string) {
	t.Helper()
	filter := lookup(t, entry.(bson.D), "$filter").(bson.D)
	if got := lookup(t, filter, "input"); got != "$"+field {
		t.Errorf("%s filter input = %v", field, got)
	}
	cond := lookup(t, filter, "cond").(bson.D)
	ne := lookup(t, cond, "$ne").(bson.A)
	if !reflect.DeepEqual(ne, bson.A{"$$id", actorID}) {
		t.Errorf("%s filter cond = %v", field, ne)
	}
}

// assertScoreStage checks that the second stage recomputes dealScore from the
// arrays rewritten by the first stage, never from a client-side snapshot.
func assertScoreStage(t *testing.T, score bson.D) {
	t.Helper()
	sub := lookup(t, lookup(t, score, "dealScore").(bson.D), "$subtract").(bson.A)
	up := lookup(t, sub[0].(bson.D), "$size")
	down := lookup(t, sub[1].(bson.D), "$size")
	if up != "$upvoters" || down != "$downvoters" {
		t.Errorf("score operands = %v, %v", up, down)
	}
}

func TestApplyVote_UpPipeline(t *testing.T) {
	coll := &mockCollection{fauResult: singleResult(t, dealDocument{
		ID:       "deal-1",
		Upvoters: []string{"actor-2"},
		Score:    1,
	})}
	repo := New(coll)

	d, err := repo.ApplyVote(context.Background(), "deal-1", "actor-2", domain.VoteUp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if coll.fauCalls != 1 {
		t.Fatalf("FindOneAndUpdate called %d times, want 1", coll.fauCalls)
	}
	voters, score := voteStages(t, coll.fauUpdate)
	assertAdds(t, lookup(t, voters, "upvoters"), "upvoters", "actor-2")
	assertRemoves(t, lookup(t, voters, "downvoters"), "downvoters", "actor-2")
	assertScoreStage(t, score)

	if d.Score != 1 || !d.HasUpvoted("actor-2") {
		t.Errorf("returned deal = %+v", d)
	}
}

func TestApplyVote_DownPipeline(t *testing.T) {
	coll := &mockCollection{fauResult: singleResult(t, dealDocument{
		ID:         "deal-1",
		Downvoters: []string{"actor-2"},
		Score:      -1,
	})}
	repo := New(coll)

	if _, err := repo.ApplyVote(context.Background(), "deal-1", "actor-2", domain.VoteDown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	voters, score := voteStages(t, coll.fauUpdate)
	assertAdds(t, lookup(t, voters, "downvoters"), "downvoters", "actor-2")
	assertRemoves(t, lookup(t, voters, "upvoters"), "upvoters", "actor-2")
	assertScoreStage(t, score)
}

func TestApplyVote_UnvotePipeline(t *testing.T) {
	coll := &mockCollection{fauResult: singleResult(t, dealDocument{ID: "deal-1"})}
	repo := New(coll)

	if _, err := repo.ApplyVote(context.Background(), "deal-1", "actor-2", domain.VoteUnvote); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	voters, score := voteStages(t, coll.fauUpdate)
	assertRemoves(t, lookup(t, voters, "upvoters"), "upvoters", "actor-2")
	assertRemoves(t, lookup(t, voters, "downvoters"), "downvoters", "actor-2")
	assertScoreStage(t, score)
}

func TestApplyVote_SwitchDirectionLeavesOneMembership(t *testing.T) {
	// An UP vote always removes the actor from downvoters in the same stage,
	// so the two sets stay disjoint regardless of the prior state.
	coll := &mockCollection{fauResult: singleResult(t, dealDocument{ID: "deal-1"})}
	repo := New(coll)

	if _, err := repo.ApplyVote(context.Background(), "deal-1", "actor-2", domain.VoteUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	voters, _ := voteStages(t, coll.fauUpdate)
	if len(voters) != 2 {
		t.Fatalf("first stage rewrites %d fields, want both voter arrays", len(voters))
	}
}

func TestApplyVote_MissingDeal(t *testing.T) {
	coll := &mockCollection{fauResult: missingResult()}
	repo := New(coll)

	_, err := repo.ApplyVote(context.Background(), "missing", "actor-2", domain.VoteUp)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestIncrementViews(t *testing.T) {
	coll := &mockCollection{fauResult: singleResult(t, dealDocument{
		ID:    "deal-1",
		Views: 8,
	})}
	repo := New(coll)

	d, err := repo.IncrementViews(context.Background(), "deal-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if coll.fauCalls != 1 {
		t.Fatalf("FindOneAndUpdate called %d times, want 1", coll.fauCalls)
	}
	want := bson.M{"$inc": bson.M{"views": 1}}
	if !reflect.DeepEqual(coll.fauUpdate, want) {
		t.Errorf("update = %v, want %v", coll.fauUpdate, want)
	}
	if d.Views != 8 {
		t.Errorf("views = %d", d.Views)
	}
}

func TestIncrementViews_MissingDeal(t *testing.T) {
	coll := &mockCollection{fauResult: missingResult()}
	repo := New(coll)

	_, err := repo.IncrementViews(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSave_UpsertsNonNilVoterArrays(t *testing.T) {
	coll := &mockCollection{}
	repo := New(coll)

	err := repo.Save(context.Background(), &domain.Deal{ID: "deal-1", Title: "USB hub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set := coll.updateUpdate.(bson.M)["$set"].(*dealDocument)
	if set.Upvoters == nil || set.Downvoters == nil {
		t.Error("voter arrays must be stored as empty arrays, not null")
	}
	if !reflect.DeepEqual(coll.updateFilter, bson.M{"_id": "deal-1"}) {
		t.Errorf("filter = %v", coll.updateFilter)
	}
}

func TestDelete_MissingDeal(t *testing.T) {
	coll := &mockCollection{deleteResult: &mongo.DeleteResult{DeletedCount: 0}}
	repo := New(coll)

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
