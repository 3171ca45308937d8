package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestHash(t *testing.T) {
	h := Hash("ana", "secret", "pepper")
	assert.True(t, strings.HasPrefix(h, HashPrefix))
	assert.Len(t, strings.TrimPrefix(h, HashPrefix), 64)
	assert.Equal(t, h, Hash("ana", "secret", "pepper"))
	assert.NotEqual(t, h, Hash("ana", "secret", "other"))
}

func TestVerifier(t *testing.T) {
	users := map[string]string{
		"ana":  Hash("ana", "secret", "pepper"),
		"luis": strings.TrimPrefix(Hash("luis", "pw", "pepper"), HashPrefix),
	}

	tests := []struct {
		name   string
		pepper string
		user   string
		pass   string
		want   bool
	}{
		{"match", "pepper", "ana", "secret", true},
		{"unprefixed hash", "pepper", "luis", "pw", true},
		{"wrong password", "pepper", "ana", "nope", false},
		{"unknown user", "pepper", "eva", "secret", false},
		{"no pepper", "", "ana", "secret", false},
		{"wrong pepper", "salt", "ana", "secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(users, tt.pepper)
			assert.Equal(t, tt.want, v.Verify(tt.user, tt.pass))
		})
	}

	assert.True(t, NewVerifier(users, "x").Enabled())
	assert.False(t, NewVerifier(nil, "x").Enabled())
}

func TestPepper_Keyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv(PepperEnvVar, "")

	_, err := GetPepper()
	assert.ErrorIs(t, err, ErrNoPepper)

	require.NoError(t, SavePepper("from-keychain"))
	p, err := GetPepper()
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", p)

	require.NoError(t, DeletePepper())
	_, err = GetPepper()
	assert.ErrorIs(t, err, ErrNoPepper)

	assert.NoError(t, DeletePepper())
	assert.Error(t, SavePepper(" "))
}

func TestPepper_EnvOverride(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, SavePepper("from-keychain"))
	t.Setenv(PepperEnvVar, "from-env")

	p, err := GetPepper()
	require.NoError(t, err)
	assert.Equal(t, "from-env", p)
}
