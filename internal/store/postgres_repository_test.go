package store

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
)

func TestOverdrawsRaised(t *testing.T) {
	tests := []struct {
		name      string
		disbursed int64
		amount    int64
		raised    int64
		want      bool
	}{
		{name: "first disbursement below raised", disbursed: 0, amount: 40000, raised: 100000, want: false},
		{name: "exactly up to raised", disbursed: 60000, amount: 40000, raised: 100000, want: false},
		{name: "one cent over raised", disbursed: 60000, amount: 40001, raised: 100000, want: true},
		{name: "nothing raised yet", disbursed: 0, amount: 1, raised: 0, want: true},
		{name: "ledger already full", disbursed: 100000, amount: 1, raised: 100000, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overdrawsRaised(tt.disbursed, tt.amount, tt.raised); got != tt.want {
				t.Fatalf("overdrawsRaised(%d, %d, %d) = %t, want %t", tt.disbursed, tt.amount, tt.raised, got, tt.want)
			}
		})
	}
}

// Audit payloads land in a JSONB column. The pool runs the simple protocol,
// where pgx picks the wire encoding from the Go type: a plain []byte would go
// out as a bytea hex literal and the insert would fail, so the field must
// encode as JSON text.
func TestAuditEntryDataEncodesAsJSONText(t *testing.T) {
	payload, err := json.Marshal(map[string]string{"decision": "approve", "notes": "documents check out"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	entry := domain.AuditEntry{Data: payload}

	buf, err := pgtype.NewMap().Encode(0, pgtype.TextFormatCode, entry.Data, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.HasPrefix(string(buf), `\x`) {
		t.Fatalf("audit data encoded as a bytea hex literal: %q", buf)
	}
	if !json.Valid(buf) {
		t.Fatalf("expected JSON text on the wire, got %q", buf)
	}
}
