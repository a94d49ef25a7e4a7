package gateway

import (
	"strings"
	"testing"
)

func TestComputeSignatureDeterministic(t *testing.T) {
	sig1 := ComputeSignature("secret", "order_abc", "pay_xyz")
	sig2 := ComputeSignature("secret", "order_abc", "pay_xyz")

	if sig1 != sig2 {
		t.Error("same inputs produced different signatures")
	}
	if len(sig1) != 64 {
		t.Errorf("signature length = %d, want 64 hex characters", len(sig1))
	}
	if sig1 != strings.ToLower(sig1) {
		t.Error("signature should be lowercase hex")
	}
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_key_secret"
	valid := ComputeSignature(secret, "order_abc", "pay_xyz")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{"valid signature", "order_abc", "pay_xyz", valid, true},
		{"tampered signature", "order_abc", "pay_xyz", valid[:63] + "0", false},
		{"signature for different order", "order_other", "pay_xyz", valid, false},
		{"signature for different payment", "order_abc", "pay_other", valid, false},
		{"empty signature", "order_abc", "pay_xyz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(secret, tt.orderID, tt.paymentID, tt.signature)
			if got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	sig := ComputeSignature("secret_a", "order_abc", "pay_xyz")
	if VerifySignature("secret_b", "order_abc", "pay_xyz", sig) {
		t.Error("signature keyed by another secret should not verify")
	}
}
