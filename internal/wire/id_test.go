package wire

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "bare number", input: `42`, want: 42},
		{name: "quoted number", input: `"42"`, want: 42},
		{name: "null", input: `null`, want: 0},
		{name: "empty string", input: `""`, want: 0},
		{name: "non-numeric", input: `"abc"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestIDMarshalIsBareNumber(t *testing.T) {
	out, err := json.Marshal(ID(7))
	require.NoError(t, err)
	assert.Equal(t, `7`, string(out))
}

func TestIDRoundTripInStruct(t *testing.T) {
	type payload struct {
		PatientID ID `json:"patientId"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"patientId":"13"}`), &p))
	assert.Equal(t, int64(13), p.PatientID.Int64())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"patientId":13}`, string(out))
}

func TestParseID(t *testing.T) {
	n, err := ParseID("31")
	require.NoError(t, err)
	assert.Equal(t, int64(31), n)

	_, err = ParseID("not-a-number")
	assert.Error(t, err)
}
