package graphdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markwave-backend/internal/graph"
	"markwave-backend/internal/model"
)

func userRecord(props map[string]any, created bool) graph.Record {
	return graph.Record{"user": props, "created": created}
}

func baseProps() map[string]any {
	return map[string]any{
		"mobile":        "9876543210",
		"user_id":       "u-1",
		"name":          "Ramesh",
		"referral_type": model.ReferralTypeNew,
		"verified":      false,
		"form_filled":   false,
		"created_at":    time.Now(),
	}
}

func TestCreateUser_New(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushWriteResult(graph.Result{Records: []graph.Record{userRecord(baseProps(), true)}})

	repo := NewUserRepository(client)
	user, created, err := repo.CreateUser(context.Background(), model.User{
		Mobile:       "9876543210",
		UserID:       "u-1",
		Name:         "Ramesh",
		ReferralType: model.ReferralTypeNew,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "9876543210", user.Mobile)
	assert.Equal(t, "u-1", user.UserID)
	assert.False(t, user.Verified)

	calls := client.WriteCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "MERGE (u:User {mobile: $mobile})")
	assert.Contains(t, calls[0].Query, "ON CREATE SET")
	assert.Equal(t, "9876543210", calls[0].Params["mobile"])
	assert.Equal(t, "u-1", calls[0].Params["userId"])
}

func TestCreateUser_ExistingReturnsOriginal(t *testing.T) {
	props := baseProps()
	props["user_id"] = "u-original"

	client := graph.NewMemoryClient()
	client.PushWriteResult(graph.Result{Records: []graph.Record{userRecord(props, false)}})

	repo := NewUserRepository(client)
	user, created, err := repo.CreateUser(context.Background(), model.User{
		Mobile: "9876543210",
		UserID: "u-second-attempt",
		Name:   "Ramesh",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "u-original", user.UserID)
}

func TestCreateUser_MissingMobile(t *testing.T) {
	repo := NewUserRepository(graph.NewMemoryClient())
	_, _, err := repo.CreateUser(context.Background(), model.User{Name: "Ramesh"})
	assert.Error(t, err)
}

func TestGetByMobile_NotFound(t *testing.T) {
	repo := NewUserRepository(graph.NewMemoryClient())
	user, err := repo.GetByMobile(context.Background(), "0000000000")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetByMobile_CustomFieldsSurface(t *testing.T) {
	props := baseProps()
	props["loan_amount"] = int64(25000)
	props["date_of_birth"] = dbtype.Date(time.Date(1990, 8, 15, 0, 0, 0, 0, time.UTC))

	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{"user": props}}})

	repo := NewUserRepository(client)
	user, err := repo.GetByMobile(context.Background(), "9876543210")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "15-08-1990", user.DateOfBirth)
	require.NotNil(t, user.Custom)
	assert.Equal(t, int64(25000), user.Custom["loan_amount"])
	// Bookkeeping properties never leak into the custom map.
	assert.NotContains(t, user.Custom, "created_at")
}

func TestUpdateByMobile_BuildsStatementFromSet(t *testing.T) {
	props := baseProps()
	props["city"] = "Anand"

	client := graph.NewMemoryClient()
	client.PushWriteResult(graph.Result{Records: []graph.Record{{"user": props}}})

	set, err := BuildUserUpdate(&UserUpdate{City: strp("Anand")})
	require.NoError(t, err)

	repo := NewUserRepository(client)
	user, err := repo.UpdateByMobile(context.Background(), "9876543210", set)
	require.NoError(t, err)
	assert.Equal(t, "Anand", user.City)

	calls := client.WriteCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "MATCH (u:User {mobile: $mobile})")
	assert.Contains(t, calls[0].Query, "u.city = $city")
	assert.Equal(t, "9876543210", calls[0].Params["mobile"])
	assert.Equal(t, "Anand", calls[0].Params["city"])
}

func TestUpdateByMobile_NotFound(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushWriteResult(graph.Result{})

	set, err := BuildUserUpdate(&UserUpdate{City: strp("Anand")})
	require.NoError(t, err)

	repo := NewUserRepository(client)
	user, err := repo.UpdateByMobile(context.Background(), "0000000000", set)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateByID_UsesLookupParam(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushWriteResult(graph.Result{Records: []graph.Record{{"user": baseProps()}}})

	set, err := BuildUserUpdate(&UserUpdate{State: strp("Gujarat")})
	require.NoError(t, err)

	repo := NewUserRepository(client)
	_, err = repo.UpdateByID(context.Background(), "u-1", set)
	require.NoError(t, err)

	calls := client.WriteCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "MATCH (u:User {user_id: $lookupId})")
	assert.Equal(t, "u-1", calls[0].Params["lookupId"])
}

func TestUpdate_RejectsLookupParamCollision(t *testing.T) {
	client := graph.NewMemoryClient()
	repo := NewUserRepository(client)

	// A hand-built set carrying the internal lookup name must never reach
	// the store with the caller's value rebound.
	set := &UpdateSet{
		Clauses: []string{"u.lookupId = $lookupId"},
		Params:  map[string]any{"lookupId": "caller-value"},
	}
	_, err := repo.UpdateByID(context.Background(), "u-1", set)
	assert.Error(t, err)
	assert.Empty(t, client.WriteCalls())

	set = &UpdateSet{
		Clauses: []string{"u.mobile = $mobile"},
		Params:  map[string]any{"mobile": "1111111111"},
	}
	_, err = repo.UpdateByMobile(context.Background(), "9876543210", set)
	assert.Error(t, err)
	assert.Empty(t, client.WriteCalls())
}

func TestListByVerification(t *testing.T) {
	verified := baseProps()
	verified["verified"] = true

	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{{"user": verified}}})

	repo := NewUserRepository(client)
	users, err := repo.ListByVerification(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].Verified)

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, true, calls[0].Params["verified"])
}

func TestGetVerificationState(t *testing.T) {
	client := graph.NewMemoryClient()
	client.PushReadResult(graph.Result{Records: []graph.Record{
		{"type": model.ReferralTypeNew, "verified": false},
	}})

	repo := NewUserRepository(client)
	state, err := repo.GetVerificationState(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.True(t, state.Found)
	assert.Equal(t, model.ReferralTypeNew, state.ReferralType)
	assert.False(t, state.Verified)
}

func TestGetVerificationState_NotFound(t *testing.T) {
	repo := NewUserRepository(graph.NewMemoryClient())
	state, err := repo.GetVerificationState(context.Background(), "0000000000")
	require.NoError(t, err)
	assert.False(t, state.Found)
}

func TestStoreVerification(t *testing.T) {
	props := baseProps()
	props["verified"] = true
	props["device_id"] = "dev-1"

	client := graph.NewMemoryClient()
	client.PushWriteResult(graph.Result{Records: []graph.Record{{"user": props}}})

	repo := NewUserRepository(client)
	user, err := repo.StoreVerification(context.Background(), "9876543210", "dev-1", "Redmi Note 9")
	require.NoError(t, err)
	assert.True(t, user.Verified)

	calls := client.WriteCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "u.verified = true")
	assert.Equal(t, "dev-1", calls[0].Params["deviceId"])
	assert.Equal(t, "Redmi Note 9", calls[0].Params["deviceModel"])
}

func TestStorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	client := graph.NewMemoryClient().WithError(boom)

	repo := NewUserRepository(client)
	_, err := repo.GetByMobile(context.Background(), "9876543210")
	assert.ErrorIs(t, err, boom)
}
