package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "user-api", TTL: time.Hour}

	tok, err := j.Issue("id-1", "a@b.co", 3)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, "a@b.co", c.Email)
	assert.Equal(t, 3, c.Role)
	assert.Equal(t, "user-api", c.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	j := &JWTer{Secret: []byte("s3cret"), Issuer: "user-api", TTL: time.Hour}
	tok, err := j.Issue("id-1", "a@b.co", 1)
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "user-api", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err, "wrong secret")

	wrongIss := &JWTer{Secret: []byte("s3cret"), Issuer: "someone-else", TTL: time.Hour}
	_, err = wrongIss.Parse(tok)
	assert.Error(t, err, "wrong issuer")

	expired := &JWTer{Secret: []byte("s3cret"), Issuer: "user-api", TTL: -2 * time.Minute}
	old, err := expired.Issue("id-1", "a@b.co", 1)
	require.NoError(t, err)
	_, err = j.Parse(old)
	assert.Error(t, err, "expired beyond leeway")

	_, err = j.Parse("garbage")
	assert.Error(t, err)
}

func TestIssue_NoSecret(t *testing.T) {
	_, err := (&JWTer{TTL: time.Hour}).Issue("id", "a@b.co", 1)
	assert.Error(t, err)
}
