package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSession_States(t *testing.T) {
	t.Parallel()

	u := &User{ID: 1, Role: RoleCustomer}
	require.True(t, Session{}.Empty())
	require.True(t, Session{}.Consistent())
	require.False(t, Session{}.Authenticated())

	require.True(t, Session{AccessToken: "a", User: u}.Authenticated())
	require.False(t, Session{User: u}.Consistent())
	require.False(t, Session{AccessToken: "a"}.Consistent())
	require.Equal(t, RoleCustomer, Session{AccessToken: "a", User: u}.Role())
	require.Equal(t, Role(""), Session{}.Role())
}

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleProfessional.Valid())
	require.False(t, Role("guest").Valid())
}

func TestTime_DecodesBackendFormats(t *testing.T) {
	t.Parallel()

	var n struct {
		A Time `json:"a"`
		B Time `json:"b"`
		C Time `json:"c"`
		D Time `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"2024-03-01T10:20:30.123456","b":"2024-03-01T10:20:30Z","c":null,"d":"2024-03-02"}`), &n)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC), n.A.Time)
	require.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), n.B.Time)
	require.True(t, n.C.IsZero())
	require.Equal(t, 2, n.D.Day())

	out, err := json.Marshal(n.C)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))

	require.Error(t, json.Unmarshal([]byte(`{"a":"yesterday"}`), &n))
}
