package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nutriscan/nutriscan-api/internal/domain"
)

const testSecret = "test-secret-with-enough-bytes-0123456789"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, ttl time.Duration) (*TokenManager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
	return NewTokenManager(testSecret, ttl, WithClock(clock.Now)), clock
}

func signClaims(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

var ignoreTokenID = cmpopts.IgnoreFields(domain.TokenData{}, "TokenID")

func TestTokenManager_IssueVerifyRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		userID domain.UserID
		email  string
		ttl    time.Duration
	}{
		{name: "default ttl", userID: 42, email: "a@b.com"},
		{name: "one second", userID: 1, email: "x@example.org", ttl: time.Second},
		{name: "one day", userID: 9007199254740993, email: "ana.maria@nutriscan.app", ttl: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, clock := newTestManager(t, time.Hour)
			token, exp, err := tm.IssueWithTTL(tt.userID, tt.email, tt.ttl)
			if err != nil {
				t.Fatalf("IssueWithTTL() error = %v", err)
			}

			wantTTL := tt.ttl
			if wantTTL <= 0 {
				wantTTL = tm.TTL()
			}
			if !exp.Equal(clock.Now().Add(wantTTL)) {
				t.Errorf("expiry = %v, want %v", exp, clock.Now().Add(wantTTL))
			}

			got, err := tm.Verify("Bearer " + token)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			want := &domain.TokenData{UserID: tt.userID, Email: tt.email, ExpiresAt: exp}
			if diff := cmp.Diff(want, got, ignoreTokenID); diff != "" {
				t.Errorf("Verify() mismatch (-want +got):\n%s", diff)
			}
			if got.TokenID == "" {
				t.Error("expected a token id")
			}
		})
	}
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		tm := NewTokenManager(testSecret, ttl)
		if tm.TTL() != DefaultAccessTokenTTL {
			t.Errorf("TTL() with %v = %v, want %v", ttl, tm.TTL(), DefaultAccessTokenTTL)
		}
	}
}

func TestTokenManager_WireClaims(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)
	token, _, err := tm.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified() error = %v", err)
	}
	if sub, ok := claims["sub"].(string); !ok || sub != "42" {
		t.Errorf("sub = %#v, want string \"42\"", claims["sub"])
	}
	if claims["email"] != "a@b.com" {
		t.Errorf("email = %#v", claims["email"])
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) != clock.Now().Add(time.Hour).Unix() {
		t.Errorf("exp = %#v", claims["exp"])
	}
	if iat, ok := claims["iat"].(float64); !ok || int64(iat) != clock.Now().Unix() {
		t.Errorf("iat = %#v", claims["iat"])
	}

	parts := strings.Split(token, ".")
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if !strings.Contains(string(header), `"alg":"HS256"`) {
		t.Errorf("header = %s, want HS256", header)
	}
}

func TestTokenManager_ExpiryBoundary(t *testing.T) {
	for _, ttl := range []time.Duration{time.Second, time.Minute, 60 * time.Minute, 24 * time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			tm, clock := newTestManager(t, ttl)
			issuedAt := clock.Now()
			token, _, err := tm.Issue(7, "boundary@example.com")
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}

			clock.now = issuedAt.Add(ttl - time.Second)
			if _, err := tm.ParseToken(token); err != nil {
				t.Errorf("just before expiry: error = %v", err)
			}

			for _, after := range []time.Duration{ttl, ttl + time.Second, ttl + time.Hour} {
				clock.now = issuedAt.Add(after)
				_, err := tm.ParseToken(token)
				if !errors.Is(err, ErrExpired) {
					t.Errorf("at issued+%v: error = %v, want ErrExpired", after, err)
				}
			}
		})
	}
}

func TestTokenManager_Scenario(t *testing.T) {
	tm, clock := newTestManager(t, 60*time.Minute)
	t0 := clock.Now()

	token, _, err := tm.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	clock.now = t0.Add(59 * time.Minute)
	got, err := tm.Verify("Bearer " + token)
	if err != nil {
		t.Fatalf("Verify at +59m: %v", err)
	}
	if got.UserID.String() != "42" || got.Email != "a@b.com" {
		t.Errorf("Verify at +59m = %+v", got)
	}

	clock.now = t0.Add(61 * time.Minute)
	if _, err := tm.Verify("Bearer " + token); !errors.Is(err, ErrExpired) {
		t.Errorf("Verify at +61m: error = %v, want ErrExpired", err)
	}

	if _, err := tm.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Verify(\"\"): error = %v, want ErrMissingToken", err)
	}
	if _, err := tm.Verify("Basic abc"); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Verify(Basic): error = %v, want ErrMalformedHeader", err)
	}
}

func TestTokenManager_HeaderVariants(t *testing.T) {
	tm, _ := newTestManager(t, time.Hour)
	token, _, err := tm.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	want, err := tm.Verify("Bearer " + token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	accepted := []string{
		"bearer " + token,
		"BEARER " + token,
		"BeArEr " + token,
		"Bearer   " + token,
		"Bearer\t" + token,
		"  Bearer " + token + "  ",
		token,
		" " + token,
	}
	for _, header := range accepted {
		got, err := tm.Verify(header)
		if err != nil {
			t.Errorf("Verify(%q) error = %v", header, err)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Verify(%q) mismatch (-want +got):\n%s", header, diff)
		}
	}

	rejected := []struct {
		header string
		want   error
	}{
		{header: "", want: ErrMissingToken},
		{header: "   ", want: ErrMissingToken},
		{header: "Basic abc", want: ErrMalformedHeader},
		{header: "Token " + token, want: ErrMalformedHeader},
		{header: "Bearer " + token + " extra", want: ErrMalformedHeader},
		{header: "Bearer a b c", want: ErrMalformedHeader},
		{header: "Bearer", want: ErrInvalidSignature},
		{header: "not-a-jwt", want: ErrInvalidSignature},
	}
	for _, tc := range rejected {
		_, err := tm.Verify(tc.header)
		if !errors.Is(err, tc.want) {
			t.Errorf("Verify(%q) error = %v, want %v", tc.header, err, tc.want)
		}
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "Bearer    abc", want: "abc"},
		{header: "abc", want: "abc"},
		{header: "", wantErr: ErrMissingToken},
		{header: "Basic abc", wantErr: ErrMalformedHeader},
		{header: "Bearer abc def", wantErr: ErrMalformedHeader},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ExtractToken(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, %v; want %q", tt.header, got, err, tt.want)
		}
	}
}

func TestTokenManager_SignatureTamper(t *testing.T) {
	tm, _ := newTestManager(t, time.Hour)
	token, _, err := tm.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	parts := strings.Split(token, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}

	t.Run("signature bytes", func(t *testing.T) {
		for bit := 0; bit < len(sig)*8; bit++ {
			flipped := append([]byte(nil), sig...)
			flipped[bit/8] ^= 1 << (bit % 8)
			tampered := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)
			if _, err := tm.ParseToken(tampered); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("bit %d: error = %v, want ErrInvalidSignature", bit, err)
			}
		}
	})

	t.Run("encoded segment", func(t *testing.T) {
		prefix := parts[0] + "." + parts[1] + "."
		for i := 0; i < len(parts[2]); i++ {
			for bit := 0; bit < 8; bit++ {
				seg := []byte(parts[2])
				seg[i] ^= 1 << bit
				if _, err := tm.ParseToken(prefix + string(seg)); !errors.Is(err, ErrInvalidSignature) {
					t.Fatalf("char %d bit %d: error = %v, want ErrInvalidSignature", i, bit, err)
				}
			}
		}
	})

	t.Run("expired and tampered", func(t *testing.T) {
		tm, clock := newTestManager(t, time.Minute)
		token, _, err := tm.Issue(42, "a@b.com")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		clock.Advance(time.Hour)
		if _, err := tm.ParseToken(token + "A"); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("error = %v, want ErrInvalidSignature", err)
		}
	})
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))
	valid := jwt.MapClaims{"sub": "42", "email": "a@b.com", "exp": exp}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "other secret",
			token: signClaims(t, jwt.SigningMethodHS256, valid, []byte("another-secret")),
			want:  ErrInvalidSignature,
		},
		{
			name:  "other algorithm",
			token: signClaims(t, jwt.SigningMethodHS512, valid, []byte(testSecret)),
			want:  ErrInvalidSignature,
		},
		{
			name:  "alg none",
			token: signClaims(t, jwt.SigningMethodNone, valid, jwt.UnsafeAllowNoneSignatureType),
			want:  ErrInvalidSignature,
		},
		{
			name:  "missing email",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42", "exp": exp}, []byte(testSecret)),
			want:  ErrIncompleteClaims,
		},
		{
			name:  "missing sub",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@b.com", "exp": exp}, []byte(testSecret)),
			want:  ErrIncompleteClaims,
		},
		{
			name:  "missing exp",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42", "email": "a@b.com"}, []byte(testSecret)),
			want:  ErrIncompleteClaims,
		},
		{
			name:  "non numeric sub",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc", "email": "a@b.com", "exp": exp}, []byte(testSecret)),
			want:  ErrMalformedSubject,
		},
		{
			name:  "numeric sub",
			token: signClaims(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": 42, "email": "a@b.com", "exp": exp}, []byte(testSecret)),
			want:  ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Verify("Bearer " + tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Errorf("error %T is not an *AuthError", err)
			}
		})
	}
}

func TestTokenManager_VerifyIsPure(t *testing.T) {
	tm, _ := newTestManager(t, time.Hour)
	token, _, err := tm.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	want, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := tm.Verify("Bearer " + token)
			if err != nil {
				errs <- err.Error()
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- diff
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestTokenManager_SecretRotation(t *testing.T) {
	old := NewTokenManager("first-secret", time.Hour)
	rotated := NewTokenManager("second-secret", time.Hour)
	token, _, err := old.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := rotated.ParseToken(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}
