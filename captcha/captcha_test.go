package captcha

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubRenderer skips the drawing so tests stay fast.
type stubRenderer struct{}

func (stubRenderer) Render(text string) ([]byte, error) {
	return []byte("png:" + text), nil
}

func newTestService(base time.Time) *Service {
	svc := NewService([]byte("captcha-secret"), 300*time.Second, stubRenderer{})
	svc.Cost = bcrypt.MinCost
	svc.Now = func() time.Time { return base }
	return svc
}

func TestGenerate(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	svc := newTestService(base)

	challenge, err := svc.Generate()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(challenge.Answer), 6)
	assert.LessOrEqual(t, len(challenge.Answer), 10)
	for _, r := range challenge.Answer {
		assert.True(t, r >= 'a' && r <= 'z')
	}
	assert.Equal(t, base.Unix()+300, challenge.Expiry)
	assert.NotEmpty(t, challenge.Image)

	// the answer must not be recoverable from the token
	assert.NotContains(t, challenge.Token, challenge.Answer)
}

func TestVerifyCorrectAnswer(t *testing.T) {
	svc := newTestService(time.Unix(1_700_000_000, 0))

	challenge, err := svc.Generate()
	require.NoError(t, err)

	result := svc.Verify(challenge.Answer, challenge.Token)
	assert.True(t, result.Valid)
	assert.False(t, result.Expired)
}

func TestVerifyWrongAnswer(t *testing.T) {
	svc := newTestService(time.Unix(1_700_000_000, 0))

	challenge, err := svc.Generate()
	require.NoError(t, err)

	result := svc.Verify("wronganswer", challenge.Token)
	assert.False(t, result.Valid)
	assert.False(t, result.Expired)
}

func TestVerifyEmptyAnswerShortCircuits(t *testing.T) {
	svc := newTestService(time.Unix(1_700_000_000, 0))

	challenge, err := svc.Generate()
	require.NoError(t, err)

	result := svc.Verify("", challenge.Token)
	assert.False(t, result.Valid)
	assert.False(t, result.Expired)
}

func TestVerifyBadToken(t *testing.T) {
	svc := newTestService(time.Unix(1_700_000_000, 0))

	result := svc.Verify("whatever", "not.a.token")
	assert.False(t, result.Valid)
	assert.False(t, result.Expired)
}

func TestVerifyForeignSecret(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	svc := newTestService(base)

	foreign := newTestService(base)
	foreign.Secret = []byte("other-secret")

	challenge, err := foreign.Generate()
	require.NoError(t, err)

	result := svc.Verify(challenge.Answer, challenge.Token)
	assert.False(t, result.Valid)
	assert.False(t, result.Expired)
}

// TTL=300s: correct answer at t=299 passes, the same token and answer
// at t=301 is expired regardless of correctness.
func TestVerifyExpiryBoundary(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	svc := newTestService(base)

	challenge, err := svc.Generate()
	require.NoError(t, err)

	svc.Now = func() time.Time { return base.Add(299 * time.Second) }
	result := svc.Verify(challenge.Answer, challenge.Token)
	assert.True(t, result.Valid)
	assert.False(t, result.Expired)

	svc.Now = func() time.Time { return base.Add(301 * time.Second) }
	result = svc.Verify(challenge.Answer, challenge.Token)
	assert.False(t, result.Valid)
	assert.True(t, result.Expired)

	// a wrong answer on an expired token still reports expired
	result = svc.Verify("wronganswer", challenge.Token)
	assert.False(t, result.Valid)
	assert.True(t, result.Expired)
}

// A fresh token has no consumed state: verification is repeatable
// until expiry.
func TestVerifyReplayableUntilExpiry(t *testing.T) {
	svc := newTestService(time.Unix(1_700_000_000, 0))

	challenge, err := svc.Generate()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result := svc.Verify(challenge.Answer, challenge.Token)
		assert.True(t, result.Valid)
	}
}
