// Package captcha implements a stateless challenge/response protocol.
// No pending challenge is ever stored server side: everything needed
// to verify an answer travels inside a signed proof token held by the
// client, which keeps the service horizontally scalable and removes
// any expiry cleanup.
package captcha

import (
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const lowercase = "abcdefghijklmnopqrstuvwxyz"

// Renderer turns an answer string into image bytes. The rendering
// itself is an external concern; the service only cares that the
// answer never leaves the server in recoverable form.
type Renderer interface {
	Render(text string) ([]byte, error)
}

// Challenge is the product of one Generate call. Answer stays on the
// server side of the API response; only Image and Token go out.
type Challenge struct {
	Answer string
	Image  []byte
	Token  string
	Expiry int64
}

// Result distinguishes a wrong answer from a stale token, since the
// UI reports those differently.
type Result struct {
	Valid   bool `json:"valid"`
	Expired bool `json:"expired"`
}

// Service issues and verifies captcha challenges. Secret must be
// independent from the session signing secret. Cost is the bcrypt
// work factor for the proof hash. Now is swappable for tests.
type Service struct {
	Secret   []byte
	TTL      time.Duration
	Cost     int
	Renderer Renderer
	Now      func() time.Time
}

func NewService(secret []byte, ttl time.Duration, renderer Renderer) *Service {
	return &Service{
		Secret:   secret,
		TTL:      ttl,
		Cost:     12,
		Renderer: renderer,
		Now:      time.Now,
	}
}

// Generate draws a random answer (6-10 lowercase letters), renders it,
// and signs a proof token carrying bcrypt(expiry||answer) plus the
// expiry. The answer itself is never embedded in the token, so the
// token is safe to hand to the client.
func (s *Service) Generate() (*Challenge, error) {
	length := 6 + rand.Intn(5)
	answer := make([]byte, length)
	for i := range answer {
		answer[i] = lowercase[rand.Intn(len(lowercase))]
	}

	image, err := s.Renderer.Render(string(answer))
	if err != nil {
		return nil, err
	}

	expiry := s.Now().Add(s.TTL).Unix()
	code := strconv.FormatInt(expiry, 10) + string(answer)
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.Cost)
	if err != nil {
		return nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"hash": string(hash),
		"exp":  expiry,
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return nil, err
	}

	return &Challenge{
		Answer: string(answer),
		Image:  image,
		Token:  signed,
		Expiry: expiry,
	}, nil
}

// Verify checks answer against the proof token. Outcomes:
//   - bad signature or undecodable token: {false, false}
//   - valid signature, expiry passed: {false, true}, answer not checked
//   - otherwise: valid iff bcrypt(expiry||answer) matches the
//     embedded hash
//
// An empty answer short-circuits without touching the token. A valid,
// unexpired token verifies any number of times; there is no consumed
// state, since single-use tracking would need exactly the server-side
// storage this design avoids.
func (s *Service) Verify(answer, tokenStr string) Result {
	result := Result{}

	if answer == "" {
		return result
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.Now() }),
	)
	if err != nil {
		result.Expired = errors.Is(err, jwt.ErrTokenExpired)
		return result
	}
	if !token.Valid {
		return result
	}

	hash, _ := claims["hash"].(string)
	exp, err := claims.GetExpirationTime()
	if hash == "" || err != nil || exp == nil {
		return result
	}

	code := strconv.FormatInt(exp.Unix(), 10) + answer
	result.Valid = bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
	return result
}
