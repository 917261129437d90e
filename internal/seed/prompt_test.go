package seed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubSecrets(t *testing.T, values ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(values) == 0 {
			return nil, errors.New("no more input")
		}
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
}

type recordingSeeder struct {
	got services.SeedRequest
	err error
}

func (r *recordingSeeder) Seed(_ context.Context, req services.SeedRequest) error {
	r.got = req
	return r.err
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  root \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "root", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "empty keeps default", input: "\n", want: 10},
		{name: "number", input: "3\n", want: 3},
		{name: "zero", input: "0\n", want: 0},
		{name: "negative", input: "-1\n", wantErr: true},
		{name: "garbage", input: "ten\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetLimit(rdr(tt.input), "Max", 10, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetSecret_Error(t *testing.T) {
	stubSecrets(t)
	var out bytes.Buffer
	_, err := GetSecret("Password", &out)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	stubSecrets(t, "rootpw", "open sesame")
	s := &recordingSeeder{}
	var out bytes.Buffer

	err := Run(context.Background(), rdr("root\n\n4\n"), &out, s)
	require.NoError(t, err)
	assert.Equal(t, services.SeedRequest{
		AdminName:              "root",
		AdminPassword:          "rootpw",
		Passphrase:             "open sesame",
		MaxProfessors:          services.DefaultMaxProfessors,
		MaxClassesPerProfessor: 4,
	}, s.got)
	assert.Contains(t, out.String(), "Success!")
}

func TestRun_SeedError(t *testing.T) {
	stubSecrets(t, "rootpw", "open sesame")
	s := &recordingSeeder{err: errors.New("db down")}
	var out bytes.Buffer

	err := Run(context.Background(), rdr("root\n\n\n"), &out, s)
	assert.EqualError(t, err, "db down")
	assert.NotContains(t, out.String(), "Success!")
}
