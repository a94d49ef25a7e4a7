package models

import "testing"

func TestMergeCarts(t *testing.T) {
	tests := []struct {
		name    string
		account CartSnapshot
		guest   CartSnapshot
		want    CartSnapshot
	}{
		{
			name:    "disjoint carts",
			account: CartSnapshot{"p1": 2},
			guest:   CartSnapshot{"p2": 3},
			want:    CartSnapshot{"p1": 2, "p2": 3},
		},
		{
			name:    "overlapping products sum",
			account: CartSnapshot{"p1": 2, "p2": 1},
			guest:   CartSnapshot{"p1": 3},
			want:    CartSnapshot{"p1": 5, "p2": 1},
		},
		{
			name:    "sum capped per product",
			account: CartSnapshot{"p1": 40},
			guest:   CartSnapshot{"p1": 30},
			want:    CartSnapshot{"p1": MaxQuantityPerItem},
		},
		{
			name:    "empty guest cart",
			account: CartSnapshot{"p1": 2},
			guest:   CartSnapshot{},
			want:    CartSnapshot{"p1": 2},
		},
		{
			name:    "empty account cart",
			account: CartSnapshot{},
			guest:   CartSnapshot{"p1": 4},
			want:    CartSnapshot{"p1": 4},
		},
		{
			name:    "non-positive quantities dropped",
			account: CartSnapshot{"p1": 0, "p2": 2},
			guest:   CartSnapshot{"p3": -1},
			want:    CartSnapshot{"p2": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCarts(tt.account, tt.guest)
			if len(got) != len(tt.want) {
				t.Fatalf("MergeCarts() = %v, want %v", got, tt.want)
			}
			for id, qty := range tt.want {
				if got[id] != qty {
					t.Errorf("merged[%s] = %d, want %d", id, got[id], qty)
				}
			}
		})
	}
}

func TestMergeCartsDoesNotMutateInputs(t *testing.T) {
	account := CartSnapshot{"p1": 2}
	guest := CartSnapshot{"p1": 3}

	MergeCarts(account, guest)

	if account["p1"] != 2 {
		t.Errorf("account cart mutated: %v", account)
	}
	if guest["p1"] != 3 {
		t.Errorf("guest cart mutated: %v", guest)
	}
}

func TestTotalQuantity(t *testing.T) {
	cart := CartSnapshot{"p1": 2, "p2": 3, "p3": 1}
	if got := cart.TotalQuantity(); got != 6 {
		t.Errorf("TotalQuantity() = %d, want 6", got)
	}

	var empty CartSnapshot
	if got := empty.TotalQuantity(); got != 0 {
		t.Errorf("TotalQuantity() on nil cart = %d, want 0", got)
	}
}
