package model

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mesh-intelligence/binder/pkg/types"
)

type role string

func (r role) EnumValue() any { return string(r) }

const (
	roleAdmin  role = "admin"
	roleMember role = "member"
)

type User struct {
	Document `bson:"-"`

	Username string          `bson:"username"`
	Age      int             `bson:"age"`
	Role     role            `bson:"role"`
	Balance  decimal.Decimal `bson:"balance"`
}

func (User) Binding() Binding {
	return Binding{Database: "default", Collection: "users"}
}

// userPatch is a partial-update shape: nil pointers mean "leave alone".
type userPatch struct {
	Username *string `bson:"username"`
	Age      *int    `bson:"age"`
}

type unboundModel struct {
	Document `bson:"-"`

	N int `bson:"n"`
}

func (unboundModel) Binding() Binding { return Binding{} }

type orphanModel struct {
	Document `bson:"-"`

	N int `bson:"n"`
}

func (orphanModel) Binding() Binding {
	return Binding{Database: "elsewhere", Collection: "orphans"}
}

var auditManyFlags []bool

type auditedNote struct {
	Document `bson:"-"`

	Text string `bson:"text"`
}

func (auditedNote) Binding() Binding {
	return Binding{Database: "default", Collection: "notes"}
}

func (n *auditedNote) PreSave(_ context.Context, fields map[string]any, many bool) (map[string]any, error) {
	auditManyFlags = append(auditManyFlags, many)
	out := copyDoc(fields)
	out["audited"] = true
	return out, nil
}

func newUsers(t *testing.T) (*Models[User, *User], *memStore) {
	t.Helper()
	store := newMemStore()
	reg, err := newTestRegistry(store)
	require.NoError(t, err)
	return New[User](reg), store
}

func intPtr(n int) *int { return &n }

func TestSaveInsertsTransientInstance(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30, Role: roleAdmin, Balance: decimal.RequireFromString("12.34")}
	require.False(t, u.Persisted())
	require.NoError(t, users.Save(ctx, u))

	assert.True(t, u.Persisted())
	assert.Equal(t, "oid-1", u.ID)

	coll := store.collection("default", "users")
	require.NotNil(t, coll)
	assert.Equal(t, []string{"InsertOne"}, coll.calls)
	require.Len(t, coll.docs, 1)

	stored := coll.docs[0]
	assert.Equal(t, "ada", stored["username"])
	assert.Equal(t, "admin", stored["role"], "enum fields are stored by value")
	want, err := primitive.ParseDecimal128("12.34")
	require.NoError(t, err)
	assert.Equal(t, want, stored["balance"], "decimal fields are stored as Decimal128")

	snap := u.Snapshot()
	assert.Equal(t, "oid-1", snap["id"], "snapshot carries the model-facing identity key")
	assert.NotContains(t, snap, "_id")
	assert.Equal(t, "admin", snap["role"])
}

func TestSaveCleanInstanceIsNoOp(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30, Role: roleMember}
	require.NoError(t, users.Save(ctx, u))
	require.NoError(t, users.Save(ctx, u))

	coll := store.collection("default", "users")
	assert.Equal(t, []string{"InsertOne"}, coll.calls, "a clean save must not reach the store")
}

func TestSaveDirtyDiffSubmitsOnlyChangedFields(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30, Role: roleMember}
	require.NoError(t, users.Save(ctx, u))

	u.Age = 31
	require.NoError(t, users.Save(ctx, u))

	coll := store.collection("default", "users")
	assert.Equal(t, []string{"InsertOne", "UpdateOne"}, coll.calls)
	assert.Equal(t, map[string]any{"age": 31}, coll.lastSet, "only the changed field goes over the wire")
	assert.Equal(t, 31, u.Snapshot()["age"])

	// The merge back into the snapshot makes the instance clean again.
	require.NoError(t, users.Save(ctx, u))
	assert.Equal(t, []string{"InsertOne", "UpdateOne"}, coll.calls)
}

func TestIdentityOpsFailFastOnTransientInstance(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()
	u := &User{Username: "ada"}

	err := users.Update(ctx, u, map[string]any{"age": 1})
	assert.ErrorIs(t, err, types.ErrMissingIdentity)

	err = users.Reload(ctx, u)
	assert.ErrorIs(t, err, types.ErrMissingIdentity)

	_, err = users.Delete(ctx, u)
	assert.ErrorIs(t, err, types.ErrMissingIdentity)

	assert.Nil(t, store.collection("default", "users"), "no store round trip may happen without an identity")
}

func TestUpdateWithMap(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30}
	require.NoError(t, users.Save(ctx, u))
	require.NoError(t, users.Update(ctx, u, map[string]any{"age": 40}))

	assert.Equal(t, 40, u.Age, "the instance is refreshed from the returned document")
	assert.Equal(t, 40, u.Snapshot()["age"])

	coll := store.collection("default", "users")
	assert.Equal(t, map[string]any{"age": 40}, coll.lastSet)
	assert.Equal(t, 40, coll.docs[0]["age"])
}

func TestUpdateWithStructSkipsNilPointers(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30}
	require.NoError(t, users.Save(ctx, u))
	require.NoError(t, users.Update(ctx, u, userPatch{Age: intPtr(50)}))

	coll := store.collection("default", "users")
	assert.Equal(t, map[string]any{"age": 50}, coll.lastSet, "nil pointer fields are unset, not zeroed")
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, 50, u.Age)
}

func TestUpdateVanishedDocumentLeavesInstance(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30}
	u.ID = "ghost"
	require.NoError(t, users.Update(ctx, u, map[string]any{"age": 40}))
	assert.Equal(t, 30, u.Age, "a vanished document leaves the instance as it was")
}

func TestReload(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30}
	require.NoError(t, users.Save(ctx, u))

	// Out-of-band change, as another writer would make it.
	coll := store.collection("default", "users")
	coll.docs[0]["age"] = 99

	require.NoError(t, users.Reload(ctx, u))
	assert.Equal(t, 99, u.Age)
	assert.Equal(t, 99, u.Snapshot()["age"])
}

func TestReloadMissingDocumentIsNotAnError(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30}
	u.ID = "ghost"
	require.NoError(t, users.Reload(ctx, u))
	assert.Equal(t, 30, u.Age)
}

func TestDelete(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada"}
	require.NoError(t, users.Save(ctx, u))

	count, err := users.Delete(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, store.collection("default", "users").docs)
	assert.NotNil(t, u.Snapshot())
	assert.Empty(t, u.Snapshot(), "delete clears the snapshot")

	count, err = users.Delete(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "a second delete finds nothing")
}

func TestSaveWithAdoptedIdentity(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada", Age: 30}
	require.NoError(t, users.Save(ctx, u))

	// A fresh instance may adopt an existing identity directly, skipping
	// the load that would normally seed the snapshot. Save must take the
	// update path and treat every field as changed.
	v := &User{Username: "ada", Age: 31}
	v.ID = u.ID
	require.NoError(t, users.Save(ctx, v))

	coll := store.collection("default", "users")
	assert.Equal(t, []string{"InsertOne", "UpdateOne"}, coll.calls)
	assert.Equal(t, 31, coll.lastSet["age"])
	assert.Equal(t, 31, v.Snapshot()["age"])

	// The merge seeded the snapshot, so an unchanged instance is clean.
	require.NoError(t, users.Save(ctx, v))
	assert.Equal(t, []string{"InsertOne", "UpdateOne"}, coll.calls)
}

func TestDeleteFailureLeavesInstanceIntact(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada"}
	require.NoError(t, users.Save(ctx, u))

	coll := store.collection("default", "users")
	coll.failWith = errors.New("connection reset")

	_, err := users.Delete(ctx, u)
	require.Error(t, err)
	assert.Len(t, coll.docs, 1, "the document is still stored")
	assert.Equal(t, "ada", u.Snapshot()["username"], "a failed delete keeps the snapshot")

	count, err := users.Delete(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, u.Snapshot())
}

func TestCreate(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	u, err := users.Create(ctx, map[string]any{"username": "ada", "age": 30})
	require.NoError(t, err)
	assert.True(t, u.Persisted())
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, 30, u.Age)
}

func TestFindOne(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	require.NoError(t, users.Save(ctx, &User{Username: "ada", Role: roleAdmin, Balance: decimal.RequireFromString("7.50")}))
	require.NoError(t, users.Save(ctx, &User{Username: "bob", Role: roleMember}))

	u, err := users.FindOne(ctx, map[string]any{"username": "ada"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "oid-1", u.ID)
	assert.Equal(t, roleAdmin, u.Role, "enum fields come back typed")
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("7.50")), "decimal fields come back typed")

	// Identity queries use the model-facing key.
	u, err = users.FindOne(ctx, map[string]any{"id": "oid-2"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "bob", u.Username)
}

func TestFindOneNotFoundIsNotAnError(t *testing.T) {
	users, _ := newUsers(t)

	u, err := users.FindOne(context.Background(), map[string]any{"username": "nobody"})
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestFindMany(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	require.NoError(t, users.Save(ctx, &User{Username: "ada", Age: 30}))
	require.NoError(t, users.Save(ctx, &User{Username: "bob", Age: 30}))
	require.NoError(t, users.Save(ctx, &User{Username: "cleo", Age: 50}))

	found, err := users.FindMany(ctx, map[string]any{"age": 30})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ada", found[0].Username)
	assert.Equal(t, "bob", found[1].Username)
	assert.True(t, found[0].Persisted())
}

func TestFindCursorYieldsRawDocuments(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	require.NoError(t, users.Save(ctx, &User{Username: "ada"}))
	require.NoError(t, users.Save(ctx, &User{Username: "bob"}))

	cur, err := users.FindCursor(ctx, nil)
	require.NoError(t, err)
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		doc := cur.Document()
		assert.Contains(t, doc, "_id", "cursor documents are store-form, not decoded")
		names = append(names, doc["username"].(string))
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []string{"ada", "bob"}, names)
}

func TestCount(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	require.NoError(t, users.Save(ctx, &User{Username: "ada", Age: 30}))
	require.NoError(t, users.Save(ctx, &User{Username: "bob", Age: 50}))

	total, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	some, err := users.Count(ctx, map[string]any{"age": 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), some)
}

func TestBulkCreateZipsIdentitiesPositionally(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	created, err := users.BulkCreate(ctx, []any{
		&User{Username: "ada", Role: roleAdmin},
		map[string]any{"username": "bob", "age": 40},
		&User{Username: "cleo"},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Equal(t, "oid-1", created[0].ID)
	assert.Equal(t, "oid-2", created[1].ID)
	assert.Equal(t, "oid-3", created[2].ID)
	assert.Equal(t, "ada", created[0].Username)
	assert.Equal(t, "bob", created[1].Username)
	assert.Equal(t, 40, created[1].Age)
	assert.Equal(t, "cleo", created[2].Username)

	coll := store.collection("default", "users")
	assert.Equal(t, []string{"InsertMany"}, coll.calls, "bulk create is one multi-document request")
}

func TestBulkCreateEmptyInput(t *testing.T) {
	users, store := newUsers(t)

	created, err := users.BulkCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Nil(t, store.collection("default", "users"))
}

func TestUpdateManyReturnsPostUpdateMatchSet(t *testing.T) {
	users, store := newUsers(t)
	ctx := context.Background()

	require.NoError(t, users.Save(ctx, &User{Username: "ada", Age: 30, Role: roleMember}))
	require.NoError(t, users.Save(ctx, &User{Username: "bob", Age: 30, Role: roleMember}))
	require.NoError(t, users.Save(ctx, &User{Username: "cleo", Age: 50, Role: roleAdmin}))

	// The filter field survives the update, so both members come back.
	updated, err := users.UpdateMany(ctx, map[string]any{"role": "member"}, map[string]any{"age": 31})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, 31, updated[0].Age)
	assert.Equal(t, 31, updated[1].Age)

	// The update moves the documents out of the filter: the re-query
	// matches nothing even though two documents were written.
	updated, err = users.UpdateMany(ctx, map[string]any{"age": 31}, map[string]any{"age": 32})
	require.NoError(t, err)
	assert.Empty(t, updated)

	coll := store.collection("default", "users")
	assert.Equal(t, 32, coll.docs[0]["age"])
	assert.Equal(t, 32, coll.docs[1]["age"])
	assert.Equal(t, 50, coll.docs[2]["age"])
}

func TestPreSaveHookRunsOnEveryWritePath(t *testing.T) {
	store := newMemStore()
	reg, err := newTestRegistry(store)
	require.NoError(t, err)
	notes := New[auditedNote](reg)
	ctx := context.Background()
	auditManyFlags = nil

	n := &auditedNote{Text: "first"}
	require.NoError(t, notes.Save(ctx, n))

	coll := store.collection("default", "notes")
	assert.Equal(t, true, coll.docs[0]["audited"], "the hook's output is what gets written")

	require.NoError(t, notes.Update(ctx, n, map[string]any{"text": "second"}))

	_, err = notes.BulkCreate(ctx, []any{
		map[string]any{"text": "third"},
		map[string]any{"text": "fourth"},
	})
	require.NoError(t, err)

	_, err = notes.UpdateMany(ctx, map[string]any{"audited": true}, map[string]any{"text": "fifth"})
	require.NoError(t, err)

	assert.Equal(t, []bool{false, false, true, true, true}, auditManyFlags)
}

func TestCollectionConfigurationErrors(t *testing.T) {
	store := newMemStore()
	reg, err := newTestRegistry(store)
	require.NoError(t, err)
	ctx := context.Background()

	err = New[unboundModel](reg).Save(ctx, &unboundModel{N: 1})
	assert.ErrorIs(t, err, types.ErrNotConfigured)

	err = New[orphanModel](reg).Save(ctx, &orphanModel{N: 1})
	assert.ErrorIs(t, err, types.ErrUnknownDatabase)
}

func TestJSONIdentityFollowsPersistence(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	u := &User{Username: "ada"}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"id"`, "a transient instance has no identity to serialize")

	require.NoError(t, users.Save(ctx, u))
	raw, err = json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"oid-1"`)
}
