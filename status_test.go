package xbdm

import "testing"

func TestStatusCodeRoundTrip(t *testing.T) {
	for n := 0; n < 65536; n += 97 { // sample the space; exhaustive is unnecessary
		c := FromU16(uint16(n))
		if c.ToU16() != uint16(n) {
			t.Fatalf("round trip failed for %d: got %d", n, c.ToU16())
		}
	}
}

func TestStatusCodeSuccessFailurePartition(t *testing.T) {
	cases := []uint16{0, 1, 200, 201, 202, 399, 400, 401, 406, 422, 65535}
	for _, n := range cases {
		c := FromU16(n)
		if c.IsSuccess() == c.IsFailure() {
			t.Fatalf("code %d: IsSuccess=%v IsFailure=%v must differ", n, c.IsSuccess(), c.IsFailure())
		}
	}
}

func TestStatusCodeDefaultMessage(t *testing.T) {
	tests := []struct {
		code    StatusCode
		message string
		ok      bool
	}{
		{StatusOK, "OK", true},
		{StatusConnected, "connected", true},
		{StatusUnknown406, "", false},
		{FromU16(9999), "", false},
	}
	for _, tt := range tests {
		msg, ok := tt.code.DefaultMessage()
		if ok != tt.ok || msg != tt.message {
			t.Errorf("DefaultMessage(%d) = (%q, %v), want (%q, %v)", tt.code, msg, ok, tt.message, tt.ok)
		}
	}
}

func TestStatusCodeString(t *testing.T) {
	if got := StatusOK.String(); got != "200" {
		t.Errorf("String() = %q, want %q", got, "200")
	}
}

func TestExpectedCodes(t *testing.T) {
	var single ExpectedCodes = StatusOK
	if !single.Contains(StatusOK) || single.Contains(StatusConnected) {
		t.Errorf("singleton ExpectedCodes behaved unexpectedly")
	}

	var set ExpectedCodes = StatusCodes{StatusOK, StatusMultilineResponseFollows}
	if !set.Contains(StatusOK) || !set.Contains(StatusMultilineResponseFollows) || set.Contains(StatusBinaryResponseFollows) {
		t.Errorf("set ExpectedCodes behaved unexpectedly")
	}
}
