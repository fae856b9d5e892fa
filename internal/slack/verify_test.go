package slack

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

func nowTimestamp() string {
	return fmt.Sprintf("%d", time.Now().Unix())
}

func TestVerifySignatureValid(t *testing.T) {
	secret := "test_secret"
	ts := nowTimestamp()
	body := []byte(`{"type":"event_callback"}`)

	sig := Sign(secret, ts, body)
	require.NoError(t, VerifySignature(secret, ts, body, sig))
}

func TestVerifySignatureBodyMutation(t *testing.T) {
	secret := "test_secret"
	ts := nowTimestamp()
	body := []byte("test body")
	sig := Sign(secret, ts, body)

	mutated := append([]byte(nil), body...)
	mutated[0] ^= 0x01
	err := VerifySignature(secret, ts, mutated, sig)
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	ts := nowTimestamp()
	body := []byte("test body")
	sig := Sign("other_secret", ts, body)

	err := VerifySignature("test_secret", ts, body, sig)
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerifySignatureSignatureMutation(t *testing.T) {
	secret := "test_secret"
	ts := nowTimestamp()
	body := []byte("test body")
	sig := Sign(secret, ts, body)

	mutated := []byte(sig)
	mutated[len(mutated)-1] ^= 0x01
	err := VerifySignature(secret, ts, body, string(mutated))
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerifySignatureExpiredTimestamp(t *testing.T) {
	secret := "test_secret"
	ts := "1000000000"
	body := []byte("test body")

	// Even a correctly computed signature fails once the window is exceeded.
	sig := Sign(secret, ts, body)
	err := VerifySignature(secret, ts, body, sig)
	require.ErrorIs(t, err, domain.ErrSignatureExpired)
}

func TestVerifySignatureFutureTimestamp(t *testing.T) {
	secret := "test_secret"
	ts := fmt.Sprintf("%d", time.Now().Add(10*time.Minute).Unix())
	body := []byte("test body")

	sig := Sign(secret, ts, body)
	err := VerifySignature(secret, ts, body, sig)
	require.ErrorIs(t, err, domain.ErrSignatureExpired)
}

func TestVerifySignatureWithinWindow(t *testing.T) {
	secret := "test_secret"
	ts := fmt.Sprintf("%d", time.Now().Add(-4*time.Minute).Unix())
	body := []byte("test body")

	sig := Sign(secret, ts, body)
	require.NoError(t, VerifySignature(secret, ts, body, sig))
}

func TestVerifySignatureBadTimestampFormat(t *testing.T) {
	err := VerifySignature("test_secret", "not_a_number", []byte("x"), "v0=anything")
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)
}
