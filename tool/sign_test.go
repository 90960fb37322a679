package tool

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKeyHex = "8170940a65bda743704be89096ce6d292f052dbb897f4b7aa5d92aa1d0e64531"

func testPublicKeyHex(t *testing.T) string {
	t.Helper()
	privateKeyBytes, err := hex.DecodeString(testPrivateKeyHex)
	require.NoError(t, err)
	privateKey, _ := btcec.PrivKeyFromBytes(privateKeyBytes)
	return hex.EncodeToString(privateKey.PubKey().SerializeCompressed())
}

func TestSignAndVerify(t *testing.T) {
	message := "POST:/api/messages/send/abc:1700000000000"
	sig, err := SignMessage(message, testPrivateKeyHex)
	require.NoError(t, err)
	t.Logf("SignMessage() sig: %v", sig)

	verified, err := VerifySign(message, sig, testPublicKeyHex(t))
	require.NoError(t, err)
	assert.True(t, verified)

	verified, err = VerifySign(message+"x", sig, testPublicKeyHex(t))
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestVerifySignRejectsGarbage(t *testing.T) {
	_, err := VerifySign("m", "zz", testPublicKeyHex(t))
	assert.Error(t, err)

	_, err = VerifySign("m", "3044", "02deadbeef")
	assert.Error(t, err)
}

func TestUserIDFromPublicKey(t *testing.T) {
	id, err := UserIDFromPublicKey(testPublicKeyHex(t))
	require.NoError(t, err)
	assert.Len(t, id, 64)

	again, err := UserIDFromPublicKey(testPublicKeyHex(t))
	require.NoError(t, err)
	assert.Equal(t, id, again)
}
