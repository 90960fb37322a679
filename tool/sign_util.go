package tool

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SignMessage 使用 secp256k1 私钥对消息做双 SHA256 签名，返回 DER 编码的 hex
func SignMessage(message, privateKeyHex string) (string, error) {
	privateKeyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", fmt.Errorf("私钥格式错误: %w", err)
	}
	privateKey, _ := btcec.PrivKeyFromBytes(privateKeyBytes)
	hash := chainhash.DoubleHashB([]byte(message))
	sig := ecdsa.Sign(privateKey, hash)
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifySign 校验签名
func VerifySign(message, messageSign, publicKeyHex string) (bool, error) {
	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("公钥格式错误: %w", err)
	}
	publicKey, err := btcec.ParsePubKey(publicKeyBytes)
	if err != nil {
		return false, fmt.Errorf("解析公钥失败: %w", err)
	}
	sigBytes, err := hex.DecodeString(messageSign)
	if err != nil {
		return false, fmt.Errorf("签名格式错误: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false, fmt.Errorf("解析签名失败: %w", err)
	}
	hash := chainhash.DoubleHashB([]byte(message))
	return sig.Verify(hash, publicKey), nil
}

// UserIDFromPublicKey 由压缩公钥派生用户ID: hex(sha256(pubkey))
func UserIDFromPublicKey(publicKeyHex string) (string, error) {
	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("公钥格式错误: %w", err)
	}
	publicKey, err := btcec.ParsePubKey(publicKeyBytes)
	if err != nil {
		return "", fmt.Errorf("解析公钥失败: %w", err)
	}
	return hex.EncodeToString(chainhash.HashB(publicKey.SerializeCompressed())), nil
}

// PublicKeyFromPrivate 由私钥得到压缩公钥 hex
func PublicKeyFromPrivate(privateKeyHex string) (string, error) {
	privateKeyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", fmt.Errorf("私钥格式错误: %w", err)
	}
	privateKey, _ := btcec.PrivKeyFromBytes(privateKeyBytes)
	return hex.EncodeToString(privateKey.PubKey().SerializeCompressed()), nil
}
