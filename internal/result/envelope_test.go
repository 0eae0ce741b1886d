package result

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rahulmyzone/MiraNext/internal/record"
)

func TestEnvelopeWireShape(t *testing.T) {
	row := record.New(
		record.F("id", record.Int(1)),
		record.F("symbol", record.Text("AAPL")),
		record.F("quantity", record.Int(100)),
	)
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{
			name: "rows",
			env:  Rows([]record.Record{row}),
			want: `{"stat":"Ok","Items":[{"id":1,"symbol":"AAPL","quantity":100}],"count":1}`,
		},
		{
			name: "no rows",
			env:  Rows(nil),
			want: `{"stat":"Ok","Items":[],"count":0}`,
		},
		{
			name: "message",
			env:  Message("Table positions created."),
			want: `{"stat":"Ok","message":"Table positions created."}`,
		},
		{
			name: "error",
			env:  Failure(errors.New(`relation "mira.nope" does not exist`)),
			want: `{"stat":"Error","error":"relation \"mira.nope\" does not exist"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.env)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("want %s\ngot  %s", tt.want, b)
			}
		})
	}
}

func TestEnvelopeDecode(t *testing.T) {
	var env Envelope
	in := `{"stat":"Ok","Items":[{"id":2,"name":"Alpaca"}],"count":1}`
	if err := json.Unmarshal([]byte(in), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.OK() || env.Count() != 1 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if name, _ := env.Items[0].Get("name"); !name.Equal(record.Text("Alpaca")) {
		t.Fatalf("unexpected name %v", name)
	}

	if err := json.Unmarshal([]byte(`{"stat":"Error","error":"boom"}`), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.OK() || env.Err() == nil || env.Err().Error() != "boom" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
}
